package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slpwire/slpd/internal/slp"
)

func mustEntry(t *testing.T, scopes, url string, lifetime uint16) slp.ServiceEntry {
	t.Helper()
	entry, err := slp.NewServiceEntry(scopes, url, lifetime)
	if err != nil {
		t.Fatalf("NewServiceEntry(%q) failed: %v", url, err)
	}
	return entry
}

func TestRegisterAndLookup(t *testing.T) {
	reg := New(clock.NewMock())

	if err := reg.Register(mustEntry(t, "one,two", "service:foo://localhost", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	urls := reg.Lookup("service:foo", slp.ParseScopes("one"))
	if len(urls) != 1 {
		t.Fatalf("Lookup() returned %d entries, want 1", len(urls))
	}
	if urls[0].URL != "service:foo://localhost" {
		t.Errorf("Lookup()[0].URL = %q, want %q", urls[0].URL, "service:foo://localhost")
	}
	if urls[0].Lifetime != 300 {
		t.Errorf("Lookup()[0].Lifetime = %d, want 300", urls[0].Lifetime)
	}
}

func TestRegisterMalformed(t *testing.T) {
	reg := New(clock.NewMock())

	tests := []struct {
		name string
		url  string
	}{
		{name: "empty url", url: ""},
		{name: "no service type", url: "not-a-service-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(slp.ServiceEntry{URL: tt.url, Lifetime: 300})
			if !errors.Is(err, slp.ErrMalformedEntry) {
				t.Errorf("Register() error = %v, want ErrMalformedEntry", err)
			}
		})
	}
}

func TestLookupFilters(t *testing.T) {
	reg := New(clock.NewMock())

	if err := reg.Register(mustEntry(t, "one", "service:foo://a", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := reg.Register(mustEntry(t, "two", "service:foo://b", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := reg.Register(mustEntry(t, "one", "service:bar://c", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		serviceType string
		scopes      string
		want        []string
	}{
		{
			name:        "scope filter",
			serviceType: "service:foo",
			scopes:      "one",
			want:        []string{"service:foo://a"},
		},
		{
			name:        "type must match exactly",
			serviceType: "service:bar",
			scopes:      "one",
			want:        []string{"service:bar://c"},
		},
		{
			name:        "wildcard scopes match all",
			serviceType: "service:foo",
			scopes:      "",
			want:        []string{"service:foo://a", "service:foo://b"},
		},
		{
			name:        "no matching scope",
			serviceType: "service:foo",
			scopes:      "three",
			want:        nil,
		},
		{
			name:        "unknown type",
			serviceType: "service:baz",
			scopes:      "one",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := reg.Lookup(tt.serviceType, slp.RequestScopes(tt.scopes))
			if len(urls) != len(tt.want) {
				t.Fatalf("Lookup() returned %d entries, want %d", len(urls), len(tt.want))
			}
			for i := range urls {
				if urls[i].URL != tt.want[i] {
					t.Errorf("Lookup()[%d].URL = %q, want %q", i, urls[i].URL, tt.want[i])
				}
			}
		})
	}
}

func TestLookupPreservesRegistrationOrder(t *testing.T) {
	reg := New(clock.NewMock())

	urls := []string{"service:foo://c", "service:foo://a", "service:foo://b"}
	for _, url := range urls {
		if err := reg.Register(mustEntry(t, "one", url, 300)); err != nil {
			t.Fatalf("Register(%q) unexpected error: %v", url, err)
		}
	}

	got := reg.Lookup("service:foo", slp.ParseScopes("one"))
	if len(got) != len(urls) {
		t.Fatalf("Lookup() returned %d entries, want %d", len(got), len(urls))
	}
	for i := range got {
		if got[i].URL != urls[i] {
			t.Errorf("Lookup()[%d].URL = %q, want %q", i, got[i].URL, urls[i])
		}
	}
}

func TestRegisterRefreshesExisting(t *testing.T) {
	clk := clock.NewMock()
	reg := New(clk)

	if err := reg.Register(mustEntry(t, "one", "service:foo://localhost", 100)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	// Re-register with new scopes and lifetime.
	if err := reg.Register(mustEntry(t, "two", "service:foo://localhost", 500)); err != nil {
		t.Fatalf("Register() refresh unexpected error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d after refresh, want 1", reg.Len())
	}

	if urls := reg.Lookup("service:foo", slp.ParseScopes("one")); len(urls) != 0 {
		t.Errorf("old scopes still match after refresh: %v", urls)
	}
	urls := reg.Lookup("service:foo", slp.ParseScopes("two"))
	if len(urls) != 1 {
		t.Fatalf("Lookup() after refresh returned %d entries, want 1", len(urls))
	}
	if urls[0].Lifetime != 500 {
		t.Errorf("refreshed Lifetime = %d, want 500", urls[0].Lifetime)
	}
}

func TestDeregister(t *testing.T) {
	reg := New(clock.NewMock())

	if err := reg.Register(mustEntry(t, "one", "service:foo://localhost", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := reg.Deregister("service:foo://localhost"); err != nil {
		t.Fatalf("Deregister() unexpected error: %v", err)
	}
	if urls := reg.Lookup("service:foo", slp.ParseScopes("one")); len(urls) != 0 {
		t.Errorf("Lookup() after deregister returned %v, want none", urls)
	}

	// Second deregister reports NotFound.
	if err := reg.Deregister("service:foo://localhost"); !errors.Is(err, slp.ErrNotFound) {
		t.Errorf("Deregister() twice error = %v, want ErrNotFound", err)
	}
}

func TestExpiry(t *testing.T) {
	clk := clock.NewMock()
	reg := New(clk)

	if err := reg.Register(mustEntry(t, "one", "service:foo://localhost", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	clk.Add(299 * time.Second)
	urls := reg.Lookup("service:foo", slp.ParseScopes("one"))
	if len(urls) != 1 {
		t.Fatalf("Lookup() before expiry returned %d entries, want 1", len(urls))
	}
	if urls[0].Lifetime != 1 {
		t.Errorf("remaining Lifetime = %d, want 1", urls[0].Lifetime)
	}

	clk.Add(1 * time.Second)
	if urls := reg.Lookup("service:foo", slp.ParseScopes("one")); len(urls) != 0 {
		t.Errorf("Lookup() after expiry returned %v, want none", urls)
	}
}

func TestPurge(t *testing.T) {
	clk := clock.NewMock()
	reg := New(clk)

	if err := reg.Register(mustEntry(t, "one", "service:foo://short", 10)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := reg.Register(mustEntry(t, "one", "service:foo://long", 1000)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	clk.Add(20 * time.Second)
	if purged := reg.Purge(); purged != 1 {
		t.Errorf("Purge() = %d, want 1", purged)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() after purge = %d, want 1", reg.Len())
	}
	if purged := reg.Purge(); purged != 0 {
		t.Errorf("second Purge() = %d, want 0", purged)
	}
}

func TestAllRewritesLifetime(t *testing.T) {
	clk := clock.NewMock()
	reg := New(clk)

	if err := reg.Register(mustEntry(t, "one", "service:foo://localhost", 300)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	clk.Add(100 * time.Second)

	entries := reg.All()
	if len(entries) != 1 {
		t.Fatalf("All() returned %d entries, want 1", len(entries))
	}
	if entries[0].Lifetime != 200 {
		t.Errorf("All()[0].Lifetime = %d, want 200", entries[0].Lifetime)
	}
}
