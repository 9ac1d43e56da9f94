package slp

import "strings"

// DefaultScope is the scope every agent falls back to when none is configured.
const DefaultScope = "default"

// ScopeSet is a case-insensitive set of scope names.
// Order is preserved from construction so wire encoding is stable,
// but receivers must not rely on any particular order.
type ScopeSet struct {
	scopes []string
}

// ParseScopes parses a comma-separated scope list. Tokens are trimmed,
// lowercased and de-duplicated; empty tokens are dropped. If nothing
// remains the set degrades to {"default"} so a misconfigured agent is
// still reachable under the default scope.
func ParseScopes(s string) ScopeSet {
	set := RequestScopes(s)
	if set.IsEmpty() {
		return ScopeSet{scopes: []string{DefaultScope}}
	}
	return set
}

// RequestScopes parses a comma-separated scope list without the default
// fallback. An empty result is valid here: requests with no scope list
// are wildcard matches.
func RequestScopes(s string) ScopeSet {
	var set ScopeSet
	for _, raw := range strings.Split(s, ",") {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" || set.Contains(token) {
			continue
		}
		set.scopes = append(set.scopes, token)
	}
	return set
}

// Contains reports whether token is in the set. The token is matched
// case-insensitively.
func (s ScopeSet) Contains(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, scope := range s.scopes {
		if scope == token {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one scope.
func (s ScopeSet) Intersects(other ScopeSet) bool {
	for _, scope := range s.scopes {
		if other.Contains(scope) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set has no scopes. On a request this
// means wildcard: it matches any configured scope set.
func (s ScopeSet) IsEmpty() bool {
	return len(s.scopes) == 0
}

// Len returns the number of scopes in the set.
func (s ScopeSet) Len() int {
	return len(s.scopes)
}

// Slice returns the scopes in insertion order.
func (s ScopeSet) Slice() []string {
	out := make([]string, len(s.scopes))
	copy(out, s.scopes)
	return out
}

// String returns the comma-joined wire form of the set.
func (s ScopeSet) String() string {
	return strings.Join(s.scopes, ",")
}

// Equal reports whether the two sets contain the same scopes,
// regardless of order.
func (s ScopeSet) Equal(other ScopeSet) bool {
	if len(s.scopes) != len(other.scopes) {
		return false
	}
	for _, scope := range s.scopes {
		if !other.Contains(scope) {
			return false
		}
	}
	return true
}

// MarshalText implements encoding.TextMarshaler using the wire form.
func (s ScopeSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields
// an empty (wildcard) set, not the default scope; callers that need the
// fallback use ParseScopes.
func (s *ScopeSet) UnmarshalText(text []byte) error {
	*s = RequestScopes(string(text))
	return nil
}
