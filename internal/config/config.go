package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DirectoryBackend string // "redis" | "memory"
	SeedFile         string // path to services.yaml with initial registrations (optional, empty = no seed)

	DecisionTTL      time.Duration // TTL for cached routing decisions (default: 5m)
	HealthStaleAfter time.Duration // snapshot age after which health reads as UNKNOWN (default: 90s)

	ProbeInterval time.Duration // interval between health probe sweeps (default: 30s)
	ProbeTimeout  time.Duration // per-probe HTTP timeout (default: 2s)

	RemoteBaseURL   string        // base URL of the remote transport gateway (ex: http://gateway:8081)
	RemoteTimeout   time.Duration // per-call remote transport timeout (default: 10s)
	RetryBackoff    time.Duration // backoff before the single remote retry (default: 200ms)
	FallbackTimeout time.Duration // bound on the local->remote fallback attempt (default: 5s)

	StatsInterval time.Duration // interval for periodic cache stats logging (default: 5m)

	UseRedisDecisionCache bool // share the decision cache through redis in addition to memory

	// Redis (required when DirectoryBackend == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Dispatch boundary rate limiting
	DispatchBurst     int  // token bucket burst per client IP (0 = rate limiting disabled)
	DispatchRefillMin int  // tokens refilled per IP per minute
	TrustProxy        bool // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SWB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SWB_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SWB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SWB_PRETTY_LOG", true),

		// Directory
		DirectoryBackend: getenv("SWB_DIRECTORY_BACKEND", "redis"),
		SeedFile:         getenv("SWB_SEED_FILE", ""), // Optional, empty = no seed load

		// Routing
		DecisionTTL:      mustDuration("SWB_DECISION_TTL", 5*time.Minute),
		HealthStaleAfter: mustDuration("SWB_HEALTH_STALE_AFTER", 90*time.Second),

		// Health probing
		ProbeInterval: mustDuration("SWB_PROBE_INTERVAL", 30*time.Second),
		ProbeTimeout:  mustDuration("SWB_PROBE_TIMEOUT", 2*time.Second),

		// Remote transport
		RemoteBaseURL:   requireEnv("SWB_REMOTE_BASE_URL"),
		RemoteTimeout:   mustDuration("SWB_REMOTE_TIMEOUT", 10*time.Second),
		RetryBackoff:    mustDuration("SWB_RETRY_BACKOFF", 200*time.Millisecond),
		FallbackTimeout: mustDuration("SWB_FALLBACK_TIMEOUT", 5*time.Second),

		StatsInterval: mustDuration("SWB_STATS_INTERVAL", 5*time.Minute),

		UseRedisDecisionCache: mustBool("SWB_REDIS_DECISION_CACHE", false),

		// Dispatch rate limiting
		DispatchBurst:     getenvInt("SWB_DISPATCH_BURST", 0),
		DispatchRefillMin: getenvInt("SWB_DISPATCH_REFILL_PER_MIN", 120),
		TrustProxy:        mustBool("SWB_TRUST_PROXY", false),
	}

	if cfg.DirectoryBackend != "redis" && cfg.DirectoryBackend != "memory" {
		panic(fmt.Sprintf("FATAL: SWB_DIRECTORY_BACKEND must be \"redis\" or \"memory\", got %q", cfg.DirectoryBackend))
	}

	if cfg.usesRedis() {
		cfg.RedisAddr = requireEnv("SWB_REDIS_ADDR")
		cfg.RedisUser = getenv("SWB_REDIS_USERNAME", "default")
		cfg.RedisPasswordRequired = mustBool("SWB_REDIS_PASSWORD_REQUIRED", true)
		cfg.RedisPassword = getenv("SWB_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("SWB_REDIS_DB", 0)
		cfg.RedisDT = mustDuration("SWB_REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisRT = mustDuration("SWB_REDIS_READ_TIMEOUT", 3*time.Second)
		cfg.RedisWT = mustDuration("SWB_REDIS_WRITE_TIMEOUT", 3*time.Second)
		cfg.RedisMaxWait = mustDuration("SWB_REDIS_MAX_WAIT", 10*time.Second)
		cfg.RedisPingTimeout = mustDuration("SWB_REDIS_PING_TIMEOUT", 5*time.Second)
		cfg.RedisPoolSize = getenvInt("SWB_REDIS_POOL_SIZE", 10)
		cfg.RedisConnectTimeout = mustDuration("SWB_REDIS_CONNECT_TIMEOUT", 30*time.Second)
		cfg.RedisRetryInterval = mustDuration("SWB_REDIS_RETRY_INTERVAL", 2*time.Second)
		cfg.RedisWarnThreshold = getenvInt("SWB_REDIS_WARN_THRESHOLD", 3)

		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("FATAL: SWB_REDIS_PASSWORD is required when SWB_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (c *Config) usesRedis() bool {
	return c.DirectoryBackend == "redis" || c.UseRedisDecisionCache
}

// UsesRedis reports whether any component needs a redis client.
func (c *Config) UsesRedis() bool { return c.usesRedis() }

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
