package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/wire"
)

// maxDatagram is the read buffer size for inbound requests. SLP
// messages larger than this would need the TCP fallback, which this
// agent does not implement.
const maxDatagram = 8192

// Server owns the UDP endpoint and pushes every datagram through
// decode -> dispatch -> encode. Requests are handled one at a time so
// each dispatch sees a consistent registry snapshot.
type Server struct {
	disp   *Dispatcher
	log    logger.Logger
	conn   *net.UDPConn
	xid    atomic.Uint32
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewServer wires a dispatcher to a UDP listen address.
func NewServer(cfg Config, disp *Dispatcher, log logger.Logger) *Server {
	s := &Server{
		disp:   disp,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	s.xid.Store(uint32(cfg.InitialXID))
	return s
}

// HandleDatagram is the single entry point the read loop calls. It
// returns the encoded reply and its destination, or nil when the agent
// stays silent. Undecodable datagrams are dropped here; they never
// reach the dispatcher.
func (s *Server) HandleDatagram(payload []byte, source *net.UDPAddr) ([]byte, *net.UDPAddr) {
	msg, err := wire.Decode(payload)
	if err != nil {
		s.log.Debug("dropping undecodable datagram",
			logger.String("source", source.String()),
			logger.Int("bytes", len(payload)),
			logger.Error(err))
		return nil, nil
	}

	req, ok := msg.(*wire.ServiceRequest)
	if !ok {
		// Replies and adverts arriving here are someone else's
		// traffic; an SA only answers requests.
		s.log.Debug("ignoring non-request message",
			logger.String("function", msg.Function().String()),
			logger.String("source", source.String()))
		return nil, nil
	}

	out := s.disp.Dispatch(req)
	if out == nil {
		return nil, nil
	}
	data, err := wire.Encode(out)
	if err != nil {
		s.log.Error("failed to encode reply",
			logger.Uint16("xid", req.XID),
			logger.Error(err))
		return nil, nil
	}
	return data, source
}

// Listen binds the UDP endpoint and starts the read loop.
func (s *Server) Listen(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to resolve listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind udp socket: %w", err)
	}
	s.conn = conn
	s.log.Info("service agent listening",
		logger.String("addr", conn.LocalAddr().String()),
		logger.String("self_url", s.disp.SelfURL()),
		logger.String("scopes", s.disp.Scopes().String()))

	go s.readLoop()
	return nil
}

func (s *Server) readLoop() {
	defer close(s.doneCh)
	buf := make([]byte, maxDatagram)
	for {
		n, source, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("udp read failed", logger.Error(err))
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])

		reply, dest := s.HandleDatagram(payload, source)
		if reply == nil {
			continue
		}
		// Fire and forget; retransmission is the requester's concern.
		if _, err := s.conn.WriteToUDP(reply, dest); err != nil {
			s.log.Warn("udp write failed",
				logger.String("dest", dest.String()),
				logger.Error(err))
		}
	}
}

// Stop closes the socket and waits for the read loop to exit.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stopCh)
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			return err
		}
		select {
		case <-s.doneCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.log.Info("service agent stopped")
	return nil
}

// NextXID returns a fresh transaction id for agent-initiated messages
// such as future DA discovery. Replies always echo the requester's xid
// and never consume one.
func (s *Server) NextXID() uint16 {
	return uint16(s.xid.Add(1) - 1)
}
