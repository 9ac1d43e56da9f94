package agent

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/slp"
	"github.com/slpwire/slpd/internal/wire"
)

func testSource(t *testing.T) *net.UDPAddr {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", "192.168.1.50:5000")
	if err != nil {
		t.Fatalf("ResolveUDPAddr() failed: %v", err)
	}
	return addr
}

func TestHandleDatagramRoundTrip(t *testing.T) {
	disp := newTestDispatcher(t, "one,two")
	srv := NewServer(Config{}, disp, logger.Nop())
	source := testSource(t)

	payload, err := wire.Encode(&wire.ServiceRequest{
		XID:         21,
		ServiceType: "service:foo",
		Scopes:      slp.RequestScopes("one"),
	})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	data, dest := srv.HandleDatagram(payload, source)
	if data == nil {
		t.Fatal("HandleDatagram() returned no reply")
	}
	if dest != source {
		t.Errorf("reply destination = %v, want the request source %v", dest, source)
	}

	msg, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("Decode(reply) failed: %v", err)
	}
	reply, ok := msg.(*wire.ServiceReply)
	if !ok {
		t.Fatalf("reply decoded as %T, want *wire.ServiceReply", msg)
	}
	if reply.XID != 21 {
		t.Errorf("reply XID = %d, want 21", reply.XID)
	}
	if reply.Error != wire.OK {
		t.Errorf("reply Error = %v, want OK", reply.Error)
	}
	if len(reply.URLs) != 1 || reply.URLs[0].URL != "service:foo://localhost" {
		t.Errorf("reply URLs = %v, want the registered URL", reply.URLs)
	}
}

func TestHandleDatagramDropsGarbage(t *testing.T) {
	disp := newTestDispatcher(t, "one")
	srv := NewServer(Config{}, disp, logger.Nop())
	source := testSource(t)

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "noise", payload: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "short header", payload: []byte{2, 1, 0, 0, 20, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if data, _ := srv.HandleDatagram(tt.payload, source); data != nil {
				t.Errorf("HandleDatagram() = % x, want nil", data)
			}
		})
	}
}

func TestHandleDatagramIgnoresNonRequests(t *testing.T) {
	disp := newTestDispatcher(t, "one")
	srv := NewServer(Config{}, disp, logger.Nop())
	source := testSource(t)

	payload, err := wire.Encode(&wire.ServiceReply{XID: 4, Error: wire.OK})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if data, _ := srv.HandleDatagram(payload, source); data != nil {
		t.Errorf("HandleDatagram() answered a reply message: % x", data)
	}
}

func TestHandleDatagramSilentResults(t *testing.T) {
	disp := newTestDispatcher(t, "one")
	srv := NewServer(Config{}, disp, logger.Nop())
	source := testSource(t)

	// Multicast lookup with no matches gets no reply.
	payload, err := wire.Encode(&wire.ServiceRequest{
		XID:         8,
		Multicast:   true,
		ServiceType: "service:bar",
		Scopes:      slp.RequestScopes("one"),
	})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if data, _ := srv.HandleDatagram(payload, source); data != nil {
		t.Errorf("HandleDatagram() = % x, want silence", data)
	}
}

func TestNextXID(t *testing.T) {
	disp := newTestDispatcher(t, "one")
	srv := NewServer(Config{InitialXID: 100}, disp, logger.Nop())

	for i := 0; i < 3; i++ {
		want := uint16(100 + i)
		if got := srv.NextXID(); got != want {
			t.Errorf("NextXID() call %d = %d, want %d", i, got, want)
		}
	}
}

func TestListenAndStop(t *testing.T) {
	disp := newTestDispatcher(t, "one,two")
	srv := NewServer(Config{}, disp, logger.Nop())

	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	addr := srv.conn.LocalAddr().String()

	client, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer client.Close()

	payload, err := wire.Encode(&wire.ServiceRequest{
		XID:         13,
		ServiceType: "service:foo",
		Scopes:      slp.RequestScopes("one"),
	})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	buf := make([]byte, maxDatagram)
	if err := client.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() failed: %v", err)
	}
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	msg, err := wire.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	reply, ok := msg.(*wire.ServiceReply)
	if !ok {
		t.Fatalf("reply decoded as %T, want *wire.ServiceReply", msg)
	}
	if reply.XID != 13 {
		t.Errorf("reply XID = %d, want 13", reply.XID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}
