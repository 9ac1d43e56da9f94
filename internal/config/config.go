package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	UDPListen       string        // ex: ":427"
	HTTPListen      string        // admin API, ex: ":8427"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Service agent identity
	LocalIP    string // IP this agent advertises itself under
	Scopes     string // comma-separated scope list, empty => "default"
	EnableSA   bool   // false => never answer requests
	InitialXID uint16 // seed for agent-initiated transaction ids (0 in tests)

	RegFile        string        // path to static registrations YAML (optional, empty = disabled)
	ReloadInterval time.Duration // interval to reload the registration file (default: 1h)
	PurgeInterval  time.Duration // interval to sweep expired registrations (default: 1m)

	// Redis (optional persistence, empty addr = memory only)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict admin API to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		UDPListen:       getenv("SLPD_UDP_LISTEN", ":427"),
		HTTPListen:      getenv("SLPD_HTTP_LISTEN", ":8427"),
		ShutdownTimeout: mustDuration("SLPD_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SLPD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SLPD_PRETTY_LOG", false),

		// Identity
		LocalIP:    requireIP("SLPD_LOCAL_IP"),
		Scopes:     getenv("SLPD_SCOPES", ""),
		EnableSA:   mustBool("SLPD_ENABLE_SA", true),
		InitialXID: uint16(getenvInt("SLPD_INITIAL_XID", 0)),

		// Static registrations
		RegFile:        getenv("SLPD_REG_FILE", ""),
		ReloadInterval: mustDuration("SLPD_RELOAD_INTERVAL", time.Hour),
		PurgeInterval:  mustDuration("SLPD_PURGE_INTERVAL", time.Minute),

		// Redis settings
		RedisAddr:           getenv("SLPD_REDIS_ADDR", ""),
		RedisUser:           getenv("SLPD_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SLPD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SLPD_REDIS_DB", 0),
		RedisDT:             mustDuration("SLPD_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("SLPD_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("SLPD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("SLPD_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("SLPD_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("SLPD_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("SLPD_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("SLPD_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("SLPD_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("SLPD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SLPD_TRUST_PROXY", false),
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireIP reads a required env var and validates it parses as an IP.
// The agent's identity goes on the wire, so a typo here would poison
// previous-responder matching across the network.
func requireIP(key string) string {
	v := requireEnv(key)
	if net.ParseIP(v) == nil {
		panic(fmt.Sprintf("FATAL: %s is not a valid IP address: %s", key, v))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
