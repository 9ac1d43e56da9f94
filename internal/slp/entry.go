package slp

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultLifetime is the registration lifetime, in seconds, applied
// when none is given.
const DefaultLifetime uint16 = 10800

// ServiceAgentType is the service type of the SA self-advertisement.
// A request for this type is a meta-query answered from the agent's own
// identity, never from the registry.
const ServiceAgentType = "service:service-agent"

var (
	// ErrMalformedEntry is returned when a registration has no URL or
	// the service type cannot be derived from it.
	ErrMalformedEntry = errors.New("slp: malformed service entry")

	// ErrNotFound is returned when deregistering a URL that is not
	// currently registered.
	ErrNotFound = errors.New("slp: service not found")
)

// ServiceEntry is one locally offered service: a service URL tagged
// with the scopes it is visible in and a lifetime in seconds.
type ServiceEntry struct {
	ServiceType string   `json:"service_type"`
	URL         string   `json:"url"`
	Scopes      ScopeSet `json:"scopes"`
	Lifetime    uint16   `json:"lifetime"`
}

// NewServiceEntry builds a ServiceEntry from a comma-separated scope
// list and a service URL, deriving the service type from the URL prefix.
func NewServiceEntry(scopes, url string, lifetime uint16) (ServiceEntry, error) {
	serviceType, err := ServiceTypeOf(url)
	if err != nil {
		return ServiceEntry{}, err
	}
	return ServiceEntry{
		ServiceType: serviceType,
		URL:         url,
		Scopes:      ParseScopes(scopes),
		Lifetime:    lifetime,
	}, nil
}

// ServiceTypeOf derives the service type from a service URL, e.g.
// "service:foo://host" -> "service:foo".
func ServiceTypeOf(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrMalformedEntry)
	}
	i := strings.Index(url, "://")
	if i <= 0 {
		return "", fmt.Errorf("%w: no service type in %q", ErrMalformedEntry, url)
	}
	return url[:i], nil
}

// ServiceAgentURL returns the self-advertisement URL for the agent
// running at the given address.
func ServiceAgentURL(address string) string {
	return ServiceAgentType + "://" + address
}

// URLEntry is one matched URL in a service reply, carrying the
// remaining lifetime of the registration.
type URLEntry struct {
	URL      string `json:"url"`
	Lifetime uint16 `json:"lifetime"`
}
