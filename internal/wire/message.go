// Package wire implements the binary codec for the SLP messages this
// agent speaks: SrvRqst, SrvRply and SAAdvert, sharing a common header.
// All fields are big-endian.
package wire

import (
	"github.com/slpwire/slpd/internal/slp"
)

// Version is the protocol version written into every header.
const Version uint8 = 2

// FunctionID tags the message type in the header.
type FunctionID uint8

const (
	FuncServiceRequest FunctionID = 1
	FuncServiceReply   FunctionID = 2
	FuncSAAdvert       FunctionID = 11
)

// String returns the protocol name of the function.
func (f FunctionID) String() string {
	switch f {
	case FuncServiceRequest:
		return "SrvRqst"
	case FuncServiceReply:
		return "SrvRply"
	case FuncSAAdvert:
		return "SAAdvert"
	default:
		return "Unknown"
	}
}

// Flags is the 16-bit flag field of the header.
type Flags uint16

const (
	// FlagOverflow marks a reply that did not fit in a datagram.
	// Never set by this agent; TCP fallback is out of scope.
	FlagOverflow Flags = 0x8000
	// FlagFresh marks a fresh registration. Unused by this agent.
	FlagFresh Flags = 0x4000
	// FlagMulticast marks a request sent via multicast or broadcast.
	FlagMulticast Flags = 0x2000
)

// ErrorCode is the 16-bit error field of a service reply.
type ErrorCode uint16

const (
	OK                   ErrorCode = 0
	LanguageNotSupported ErrorCode = 1
	ParseError           ErrorCode = 2
	InvalidRegistration  ErrorCode = 3
	ScopeNotSupported    ErrorCode = 4
)

// String returns the protocol name of the error code.
func (e ErrorCode) String() string {
	switch e {
	case OK:
		return "OK"
	case LanguageNotSupported:
		return "LANGUAGE_NOT_SUPPORTED"
	case ParseError:
		return "PARSE_ERROR"
	case InvalidRegistration:
		return "INVALID_REGISTRATION"
	case ScopeNotSupported:
		return "SCOPE_NOT_SUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// Message is the tagged variant returned by Decode. Dispatch happens by
// type switch on the concrete message.
type Message interface {
	Function() FunctionID
}

// ServiceRequest is a decoded SrvRqst.
type ServiceRequest struct {
	XID       uint16
	Multicast bool
	Language  string

	// PreviousResponders lists the addresses that already answered
	// this multicast query. An agent finding itself here stays silent.
	PreviousResponders []string

	ServiceType string
	Scopes      slp.ScopeSet

	// Predicate and SPI are carried opaquely; the dispatcher ignores
	// them but they round-trip byte-exact.
	Predicate string
	SPI       string
}

// Function implements Message.
func (*ServiceRequest) Function() FunctionID { return FuncServiceRequest }

// ServiceReply is a decoded SrvRply.
type ServiceReply struct {
	XID      uint16
	Language string
	Error    ErrorCode
	URLs     []slp.URLEntry
}

// Function implements Message.
func (*ServiceReply) Function() FunctionID { return FuncServiceReply }

// SAAdvert is a decoded service-agent advertisement.
type SAAdvert struct {
	XID       uint16
	Multicast bool
	Language  string
	URL       string
	Scopes    slp.ScopeSet

	// Attributes and SPI are opaque pass-through fields, empty on
	// adverts generated by this agent.
	Attributes string
	SPI        string
}

// Function implements Message.
func (*SAAdvert) Function() FunctionID { return FuncSAAdvert }
