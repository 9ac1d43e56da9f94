// Package registry holds the services this agent answers for.
package registry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slpwire/slpd/internal/slp"
)

// record is one registration plus its expiry deadline.
type record struct {
	entry    slp.ServiceEntry
	deadline time.Time
}

// Registry is an in-memory service registry keyed by URL. Lookups see
// only non-expired entries, in registration order. The clock is
// injected so expiry is deterministic under test.
type Registry struct {
	mu      sync.RWMutex
	clock   clock.Clock
	records map[string]*record
	order   []string // URLs in registration order
}

// New creates an empty registry driven by the given clock.
func New(clk clock.Clock) *Registry {
	return &Registry{
		clock:   clk,
		records: make(map[string]*record),
	}
}

// Register inserts the entry, or refreshes scopes and lifetime if the
// URL is already present. A refresh keeps the original registration
// order slot.
func (r *Registry) Register(entry slp.ServiceEntry) error {
	if entry.URL == "" {
		return slp.ErrMalformedEntry
	}
	serviceType, err := slp.ServiceTypeOf(entry.URL)
	if err != nil {
		return err
	}
	entry.ServiceType = serviceType
	if entry.Scopes.IsEmpty() {
		entry.Scopes = slp.ParseScopes("")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.clock.Now().Add(time.Duration(entry.Lifetime) * time.Second)
	if existing, ok := r.records[entry.URL]; ok {
		existing.entry = entry
		existing.deadline = deadline
		return nil
	}
	r.records[entry.URL] = &record{entry: entry, deadline: deadline}
	r.order = append(r.order, entry.URL)
	return nil
}

// Deregister removes the entry for url. Deregistering an unknown URL
// returns slp.ErrNotFound; most callers treat that as success.
func (r *Registry) Deregister(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[url]; !ok {
		return slp.ErrNotFound
	}
	delete(r.records, url)
	for i, u := range r.order {
		if u == url {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Lookup returns the URL entries of every non-expired registration
// whose service type matches exactly and whose scopes intersect the
// query. An empty query scope set matches everything. Results are in
// registration order; an empty result is not an error.
func (r *Registry) Lookup(serviceType string, scopes slp.ScopeSet) []slp.URLEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	var urls []slp.URLEntry
	for _, url := range r.order {
		rec := r.records[url]
		if rec.entry.ServiceType != serviceType {
			continue
		}
		if !rec.deadline.After(now) {
			continue
		}
		if !scopes.IsEmpty() && !rec.entry.Scopes.Intersects(scopes) {
			continue
		}
		urls = append(urls, slp.URLEntry{
			URL:      url,
			Lifetime: remainingLifetime(rec.deadline, now),
		})
	}
	return urls
}

// All returns every non-expired entry in registration order, with the
// lifetime rewritten to the seconds remaining.
func (r *Registry) All() []slp.ServiceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	entries := make([]slp.ServiceEntry, 0, len(r.order))
	for _, url := range r.order {
		rec := r.records[url]
		if !rec.deadline.After(now) {
			continue
		}
		entry := rec.entry
		entry.Lifetime = remainingLifetime(rec.deadline, now)
		entries = append(entries, entry)
	}
	return entries
}

// Purge removes expired entries and returns how many were dropped.
// Lookup already excludes them; this reclaims the memory.
func (r *Registry) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	kept := r.order[:0]
	purged := 0
	for _, url := range r.order {
		if r.records[url].deadline.After(now) {
			kept = append(kept, url)
			continue
		}
		delete(r.records, url)
		purged++
	}
	r.order = kept
	return purged
}

// Len returns the number of entries, expired ones included until the
// next purge.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// remainingLifetime converts a deadline into whole seconds from now,
// rounding up so a freshly registered entry reports its full lifetime.
func remainingLifetime(deadline, now time.Time) uint16 {
	remaining := deadline.Sub(now)
	secs := (remaining + time.Second - 1) / time.Second
	if secs < 0 {
		return 0
	}
	if secs > 0xFFFF {
		return 0xFFFF
	}
	return uint16(secs)
}
