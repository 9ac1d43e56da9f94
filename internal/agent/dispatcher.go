// Package agent implements the service-agent role: the decision logic
// answering service requests, and the UDP shell that feeds it.
package agent

import (
	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/registry"
	"github.com/slpwire/slpd/internal/slp"
	"github.com/slpwire/slpd/internal/wire"
)

// Config is the agent identity supplied once at construction.
type Config struct {
	// Enabled turns the service-agent role on. A disabled agent stays
	// silent for every request.
	Enabled bool

	// Scopes is the agent's configured scope set. Construction runs it
	// through the default fallback, so it is never empty.
	Scopes slp.ScopeSet

	// Address is the local IP this agent identifies as, both for
	// self-advertisement URLs and for previous-responder matching.
	Address string

	// InitialXID seeds the transaction-id counter for agent-initiated
	// messages. Fixed in tests so output is deterministic.
	InitialXID uint16
}

// Dispatcher decides what, if anything, to send back for one service
// request. It keeps no state of its own between calls; everything it
// reads lives in the config and the registry.
type Dispatcher struct {
	cfg Config
	reg *registry.Registry
	log logger.Logger
}

// NewDispatcher creates a dispatcher for the given identity and registry.
func NewDispatcher(cfg Config, reg *registry.Registry, log logger.Logger) *Dispatcher {
	cfg.Scopes = slp.ParseScopes(cfg.Scopes.String())
	return &Dispatcher{cfg: cfg, reg: reg, log: log}
}

// Scopes returns the agent's configured scope set.
func (d *Dispatcher) Scopes() slp.ScopeSet {
	return d.cfg.Scopes
}

// SelfURL returns this agent's service-agent advertisement URL.
func (d *Dispatcher) SelfURL() string {
	return slp.ServiceAgentURL(d.cfg.Address)
}

// Dispatch evaluates one request and returns the reply to send, or nil
// for silence. Rules are checked in order; the first match wins:
//
//  1. our address in the previous-responder list: silent
//  2. empty service type: ParseError if unicast, silent if multicast
//  3. service:service-agent: SAAdvert on scope match or wildcard,
//     otherwise ScopeNotSupported if unicast, silent if multicast
//  4. anything else: ScopeNotSupported on a non-matching scope list,
//     otherwise a lookup; multicast suppresses empty results
func (d *Dispatcher) Dispatch(req *wire.ServiceRequest) wire.Message {
	if !d.cfg.Enabled {
		return nil
	}

	for _, addr := range req.PreviousResponders {
		if addr == d.cfg.Address {
			d.log.Debug("dropping request, already responded",
				logger.Uint16("xid", req.XID))
			return nil
		}
	}

	if req.ServiceType == "" {
		if req.Multicast {
			return nil
		}
		return d.errorReply(req, wire.ParseError)
	}

	if req.ServiceType == slp.ServiceAgentType {
		return d.selfQuery(req)
	}

	return d.serviceLookup(req)
}

// selfQuery answers "are you there and what are your scopes".
func (d *Dispatcher) selfQuery(req *wire.ServiceRequest) wire.Message {
	if !req.Scopes.IsEmpty() && !req.Scopes.Intersects(d.cfg.Scopes) {
		if req.Multicast {
			return nil
		}
		return d.errorReply(req, wire.ScopeNotSupported)
	}

	// The advert goes back unicast to the asker no matter how the
	// request arrived, so the multicast flag stays clear.
	return &wire.SAAdvert{
		XID:    req.XID,
		URL:    d.SelfURL(),
		Scopes: d.cfg.Scopes,
	}
}

// serviceLookup answers a generic lookup from the registry.
func (d *Dispatcher) serviceLookup(req *wire.ServiceRequest) wire.Message {
	if !req.Scopes.IsEmpty() && !req.Scopes.Intersects(d.cfg.Scopes) {
		if req.Multicast {
			return nil
		}
		return d.errorReply(req, wire.ScopeNotSupported)
	}

	scopes := req.Scopes
	if scopes.IsEmpty() {
		scopes = d.cfg.Scopes
	}
	urls := d.reg.Lookup(req.ServiceType, scopes)
	d.log.Debug("service lookup",
		logger.Uint16("xid", req.XID),
		logger.String("service_type", req.ServiceType),
		logger.Int("matches", len(urls)))

	// A multicast query with nothing to offer gets no reply; many
	// agents hear the same query and only positive answers carry
	// information. Unicast askers always get an explicit answer.
	if req.Multicast && len(urls) == 0 {
		return nil
	}
	return &wire.ServiceReply{XID: req.XID, Language: req.Language, URLs: urls}
}

func (d *Dispatcher) errorReply(req *wire.ServiceRequest, code wire.ErrorCode) *wire.ServiceReply {
	d.log.Debug("negative reply",
		logger.Uint16("xid", req.XID),
		logger.String("error", code.String()))
	return &wire.ServiceReply{XID: req.XID, Language: req.Language, Error: code}
}
