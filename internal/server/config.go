package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-session ingress throttling.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the relay configuration.
type Config struct {
	// Addr is the TCP listen address for the line protocol, e.g. ":5000".
	Addr string
	// HTTPAddr is the listen address for the health and WebSocket front end.
	HTTPAddr string
	// MaxSessions bounds how many connections may be live at once.
	MaxSessions int
	// MaxFrameSize caps one wire frame in bytes.
	MaxFrameSize int64
	// SendBuffer is the per-session outbound queue depth; a session whose
	// queue fills is torn down rather than blocking the router.
	SendBuffer int
	// AllowedOrigins lists origins accepted on WebSocket upgrades. "*"
	// allows any origin.
	AllowedOrigins []string
	RateLimit      RateLimitConfig
}

func defaultConfig() Config {
	return Config{
		Addr:         ":5000",
		HTTPAddr:     ":8080",
		MaxSessions:  100,
		MaxFrameSize: 4096,
		SendBuffer:   256,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		RateLimit: RateLimitConfig{
			Burst:          20,
			RefillInterval: time.Second,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	def := defaultConfig()

	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = def.HTTPAddr
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = def.MaxFrameSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}

	return cfg
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config from environment variables, falling back
// to defaults for anything unset or unparsable.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if addr := os.Getenv("RELAY_PORT"); addr != "" {
		cfg.Addr = normalizeAddr(addr)
	}

	if addr := os.Getenv("RELAY_HTTP_PORT"); addr != "" {
		cfg.HTTPAddr = normalizeAddr(addr)
	}

	if v := os.Getenv("RELAY_MAX_SESSIONS"); v != "" {
		cfg.MaxSessions = parseIntValue(v, cfg.MaxSessions)
	}

	if v := os.Getenv("RELAY_MAX_FRAME_SIZE"); v != "" {
		cfg.MaxFrameSize = parseInt64Value(v, cfg.MaxFrameSize)
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		cfg.RateLimit.Burst = parseIntValue(v, cfg.RateLimit.Burst)
	}

	if v := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); v != "" {
		cfg.RateLimit.RefillInterval = parseRefillInterval(v, cfg.RateLimit.RefillInterval)
	}

	return &cfg
}

// normalizeAddr accepts either a bare port ("5000") or a full listen
// address (":5000", "0.0.0.0:5000").
func normalizeAddr(v string) string {
	if !strings.Contains(v, ":") {
		return ":" + v
	}
	return v
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseInt64Value(value string, defaultValue int64) int64 {
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseRefillInterval(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
