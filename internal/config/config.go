package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // deadline of every request context

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	APIKey          string // shared secret expected in X-API-Key
	Store           string // "redis" | "memory"
	SerializeWrites bool   // false reproduces unguarded read-modify-write
	StrictDocuments bool   // fail instead of recovering unreadable documents
	FaviconService  string // base URL used to derive favicons

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	RedisMaxTxRetries   int           // WATCH retries before a write is reported as conflicting

	AllowedCIDRS []string // optional, restrict /readyz to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst     int // 0 disables the limiter
	RateLimitPerMinute int
}

// Load reads the configuration from the environment and panics on fatal
// misconfiguration.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKMARKD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKMARKD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("BOOKMARKD_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOOKMARKD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKMARKD_PRETTY_LOG", true),

		// Bookmarks
		APIKey:          requireEnv("BOOKMARKD_API_KEY"),
		Store:           strings.ToLower(getenv("BOOKMARKD_STORE", StoreRedis)),
		SerializeWrites: mustBool("BOOKMARKD_SERIALIZE_WRITES", true),
		StrictDocuments: mustBool("BOOKMARKD_STRICT_DOCUMENTS", false),
		FaviconService:  getenv("BOOKMARKD_FAVICON_SERVICE", "https://www.google.com/s2/favicons"),

		// Redis settings
		RedisUser:           getenv("BOOKMARKD_REDIS_USERNAME", ""),
		RedisPassword:       getenv("BOOKMARKD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BOOKMARKD_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisMaxTxRetries:   getenvInt("REDIS_MAX_TX_RETRIES", 5),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("BOOKMARKD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKMARKD_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("BOOKMARKD_RATE_LIMIT_BURST", 0),
		RateLimitPerMinute: getenvInt("BOOKMARKD_RATE_LIMIT_PER_MIN", 60),
	}

	switch cfg.Store {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("BOOKMARKD_REDIS_ADDR")
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: BOOKMARKD_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.APIKey = "***REDACTED***"
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
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
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
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
