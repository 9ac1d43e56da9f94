package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/slpwire/slpd/internal/slp"
)

// headerSize is the fixed part of the header, excluding the language tag:
// version(1) + function(1) + length(3) + flags(2) + ext(1) + xid(2) + lang-len(2).
const headerSize = 12

// maxFieldLen bounds every length-prefixed string field.
const maxFieldLen = 0xFFFF

var (
	// ErrTruncated means the buffer ended before the message did.
	ErrTruncated = errors.New("wire: truncated packet")
	// ErrLengthMismatch means the header length field disagrees with
	// the actual datagram size.
	ErrLengthMismatch = errors.New("wire: header length mismatch")
	// ErrUnknownFunction means the function-id is not one this agent
	// understands.
	ErrUnknownFunction = errors.New("wire: unknown function")
	// ErrFieldTooLong means an in-memory string does not fit a 16-bit
	// length field. Encode fails closed instead of truncating.
	ErrFieldTooLong = errors.New("wire: field too long")
	// ErrUnsupported means the packet carries a construct this agent
	// does not handle, such as authentication blocks.
	ErrUnsupported = errors.New("wire: unsupported field")
)

// Encode serializes msg into a datagram payload.
func Encode(msg Message) ([]byte, error) {
	var (
		body  []byte
		flags Flags
		xid   uint16
		lang  string
		err   error
	)

	switch m := msg.(type) {
	case *ServiceRequest:
		xid, lang = m.XID, m.Language
		if m.Multicast {
			flags |= FlagMulticast
		}
		body, err = encodeRequestBody(m)
	case *ServiceReply:
		xid, lang = m.XID, m.Language
		body, err = encodeReplyBody(m)
	case *SAAdvert:
		xid, lang = m.XID, m.Language
		if m.Multicast {
			flags |= FlagMulticast
		}
		body, err = encodeAdvertBody(m)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFunction, msg)
	}
	if err != nil {
		return nil, err
	}
	if len(lang) > maxFieldLen {
		return nil, fmt.Errorf("%w: language tag", ErrFieldTooLong)
	}

	total := headerSize + len(lang) + len(body)
	buf := make([]byte, 0, total)
	buf = append(buf, Version, byte(msg.Function()))
	buf = appendUint24(buf, uint32(total))
	buf = binary.BigEndian.AppendUint16(buf, uint16(flags))
	buf = append(buf, 0) // reserved extension id
	buf = binary.BigEndian.AppendUint16(buf, xid)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(lang)))
	buf = append(buf, lang...)
	buf = append(buf, body...)
	return buf, nil
}

func encodeRequestBody(m *ServiceRequest) ([]byte, error) {
	var buf []byte
	var err error
	for _, field := range []struct {
		name  string
		value string
	}{
		{"previous responders", strings.Join(m.PreviousResponders, ",")},
		{"service type", m.ServiceType},
		{"scope list", m.Scopes.String()},
		{"predicate", m.Predicate},
		{"spi", m.SPI},
	} {
		if buf, err = appendString(buf, field.value); err != nil {
			return nil, fmt.Errorf("%w: %s", err, field.name)
		}
	}
	return buf, nil
}

func encodeReplyBody(m *ServiceReply) ([]byte, error) {
	buf := binary.BigEndian.AppendUint16(nil, uint16(m.Error))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.URLs)))
	var err error
	for _, entry := range m.URLs {
		buf = binary.BigEndian.AppendUint16(buf, entry.Lifetime)
		if buf, err = appendString(buf, entry.URL); err != nil {
			return nil, fmt.Errorf("%w: url entry", err)
		}
		buf = append(buf, 0) // auth block count
	}
	return buf, nil
}

func encodeAdvertBody(m *SAAdvert) ([]byte, error) {
	var buf []byte
	var err error
	for _, field := range []struct {
		name  string
		value string
	}{
		{"url", m.URL},
		{"scope list", m.Scopes.String()},
		{"attribute list", m.Attributes},
		{"spi", m.SPI},
	} {
		if buf, err = appendString(buf, field.value); err != nil {
			return nil, fmt.Errorf("%w: %s", err, field.name)
		}
	}
	buf = append(buf, 0) // auth block count
	return buf, nil
}

// Decode parses one datagram payload into a message.
func Decode(buf []byte) (Message, error) {
	if len(buf) < headerSize {
		return nil, ErrTruncated
	}
	function := FunctionID(buf[1])
	length := uint24(buf[2:5])
	if int(length) != len(buf) {
		return nil, fmt.Errorf("%w: header says %d, got %d", ErrLengthMismatch, length, len(buf))
	}
	flags := Flags(binary.BigEndian.Uint16(buf[5:7]))
	xid := binary.BigEndian.Uint16(buf[8:10])

	r := &reader{buf: buf, off: 10}
	lang, err := r.str()
	if err != nil {
		return nil, err
	}

	switch function {
	case FuncServiceRequest:
		return decodeRequestBody(r, xid, flags, lang)
	case FuncServiceReply:
		return decodeReplyBody(r, xid, lang)
	case FuncSAAdvert:
		return decodeAdvertBody(r, xid, flags, lang)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFunction, function)
	}
}

func decodeRequestBody(r *reader, xid uint16, flags Flags, lang string) (*ServiceRequest, error) {
	prList, err := r.str()
	if err != nil {
		return nil, err
	}
	serviceType, err := r.str()
	if err != nil {
		return nil, err
	}
	scopes, err := r.str()
	if err != nil {
		return nil, err
	}
	predicate, err := r.str()
	if err != nil {
		return nil, err
	}
	spi, err := r.str()
	if err != nil {
		return nil, err
	}
	return &ServiceRequest{
		XID:                xid,
		Multicast:          flags&FlagMulticast != 0,
		Language:           lang,
		PreviousResponders: splitAddresses(prList),
		ServiceType:        serviceType,
		Scopes:             slp.RequestScopes(scopes),
		Predicate:          predicate,
		SPI:                spi,
	}, nil
}

func decodeReplyBody(r *reader, xid uint16, lang string) (*ServiceReply, error) {
	code, err := r.u16()
	if err != nil {
		return nil, err
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	var urls []slp.URLEntry
	for i := 0; i < int(count); i++ {
		lifetime, err := r.u16()
		if err != nil {
			return nil, err
		}
		url, err := r.str()
		if err != nil {
			return nil, err
		}
		auths, err := r.u8()
		if err != nil {
			return nil, err
		}
		if auths != 0 {
			return nil, fmt.Errorf("%w: authentication blocks", ErrUnsupported)
		}
		urls = append(urls, slp.URLEntry{URL: url, Lifetime: lifetime})
	}
	return &ServiceReply{XID: xid, Language: lang, Error: ErrorCode(code), URLs: urls}, nil
}

func decodeAdvertBody(r *reader, xid uint16, flags Flags, lang string) (*SAAdvert, error) {
	url, err := r.str()
	if err != nil {
		return nil, err
	}
	scopes, err := r.str()
	if err != nil {
		return nil, err
	}
	attrs, err := r.str()
	if err != nil {
		return nil, err
	}
	spi, err := r.str()
	if err != nil {
		return nil, err
	}
	auths, err := r.u8()
	if err != nil {
		return nil, err
	}
	if auths != 0 {
		return nil, fmt.Errorf("%w: authentication blocks", ErrUnsupported)
	}
	return &SAAdvert{
		XID:        xid,
		Multicast:  flags&FlagMulticast != 0,
		Language:   lang,
		URL:        url,
		Scopes:     slp.RequestScopes(scopes),
		Attributes: attrs,
		SPI:        spi,
	}, nil
}

// reader walks a decode buffer, failing with ErrTruncated once the
// buffer runs out.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() (uint8, error) {
	if r.off+1 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.off+2 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// str reads a 16-bit length-prefixed string.
func (r *reader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", ErrTruncated
	}
	v := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return v, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > maxFieldLen {
		return nil, ErrFieldTooLong
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

func appendUint24(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>16), byte(v>>8), byte(v))
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func splitAddresses(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, raw := range strings.Split(s, ",") {
		addr := strings.TrimSpace(raw)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
