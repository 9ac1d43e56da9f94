package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireIP(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPanic bool
	}{
		{
			name:      "valid IPv4",
			value:     "10.0.0.1",
			wantPanic: false,
		},
		{
			name:      "valid IPv6",
			value:     "fe80::1",
			wantPanic: false,
		},
		{
			name:      "hostname not allowed",
			value:     "agent.local",
			wantPanic: true,
		},
		{
			name:      "garbage",
			value:     "10.0.0",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.Setenv("TEST_LOCAL_IP", tt.value); err != nil {
				t.Fatalf("failed to set env var: %v", err)
			}
			defer func() {
				if err := os.Unsetenv("TEST_LOCAL_IP"); err != nil {
					t.Errorf("failed to unset env var: %v", err)
				}
			}()

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireIP() should have panicked for %q", tt.value)
					}
				}()
			}

			result := requireIP("TEST_LOCAL_IP")
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireIP() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{
			name:  "valid duration",
			value: "30s",
			def:   time.Minute,
			want:  30 * time.Second,
		},
		{
			name:  "invalid duration falls back",
			value: "not-a-duration",
			def:   time.Minute,
			want:  time.Minute,
		},
		{
			name:  "unset falls back",
			value: "",
			def:   5 * time.Second,
			want:  5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv("TEST_DURATION", tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv("TEST_DURATION"); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if got := mustDuration("TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "spaces and quotes",
			input: ` 10.0.0.0/8 , "192.168.1.1" ,`,
			want:  []string{"10.0.0.0/8", "192.168.1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitAndTrim() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
