package slp

import (
	"errors"
	"testing"
)

func TestServiceTypeOf(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "service url",
			url:  "service:foo://localhost",
			want: "service:foo",
		},
		{
			name: "abstract service type",
			url:  "service:printer:lpr://host:515/queue",
			want: "service:printer:lpr",
		},
		{
			name:    "empty url",
			url:     "",
			wantErr: true,
		},
		{
			name:    "no separator",
			url:     "service:foo",
			wantErr: true,
		},
		{
			name:    "separator at start",
			url:     "://host",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ServiceTypeOf(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEntry) {
					t.Errorf("ServiceTypeOf(%q) error = %v, want ErrMalformedEntry", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ServiceTypeOf(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ServiceTypeOf(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewServiceEntry(t *testing.T) {
	entry, err := NewServiceEntry("one,two", "service:foo://localhost", 300)
	if err != nil {
		t.Fatalf("NewServiceEntry() unexpected error: %v", err)
	}
	if entry.ServiceType != "service:foo" {
		t.Errorf("ServiceType = %q, want %q", entry.ServiceType, "service:foo")
	}
	if entry.URL != "service:foo://localhost" {
		t.Errorf("URL = %q, want %q", entry.URL, "service:foo://localhost")
	}
	if !entry.Scopes.Equal(ParseScopes("one,two")) {
		t.Errorf("Scopes = %v, want one,two", entry.Scopes.Slice())
	}
	if entry.Lifetime != 300 {
		t.Errorf("Lifetime = %d, want 300", entry.Lifetime)
	}
}

func TestNewServiceEntryDefaultsScopes(t *testing.T) {
	entry, err := NewServiceEntry("", "service:foo://localhost", 300)
	if err != nil {
		t.Fatalf("NewServiceEntry() unexpected error: %v", err)
	}
	if !entry.Scopes.Contains(DefaultScope) {
		t.Errorf("Scopes = %v, want to contain %q", entry.Scopes.Slice(), DefaultScope)
	}
}

func TestServiceAgentURL(t *testing.T) {
	if got := ServiceAgentURL("10.0.0.1"); got != "service:service-agent://10.0.0.1" {
		t.Errorf("ServiceAgentURL() = %q, want %q", got, "service:service-agent://10.0.0.1")
	}
}
