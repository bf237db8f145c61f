package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

const redacted = "***REDACTED***"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline (ex: 2s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreDriver string // "redis" | "sqlite" | "memory"
	SQLitePath  string // database file when StoreDriver is sqlite
	SeedFile    string // optional fixtures YAML loaded at startup

	SessionSecret  string        // HS256 key shared with the login service
	SessionIssuer  string        // expected "iss" claim, empty accepts any
	LoginURL       string        // where unauthenticated browsers are sent
	BcryptCost     int           // cost for newly hashed secrets
	PasswordBurst  int           // change-password attempts allowed at once per identity
	PasswordRefill int           // change-password attempts regained per minute
	TokenTTL       time.Duration // lifetime of tokens minted by the token command

	// Redis
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

	AllowedHosts []string // optional, restrict the dashboard to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Load reads the configuration from INKPAD_* environment variables.
// It panics when a required variable is missing or the result is inconsistent.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("INKPAD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("INKPAD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("INKPAD_REQUEST_TIMEOUT", 2*time.Second),

		// Logging
		LogLevel:  getenv("INKPAD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("INKPAD_PRETTY_LOG", true),

		// Storage
		StoreDriver: strings.ToLower(getenv("INKPAD_STORE_DRIVER", DriverRedis)),
		SQLitePath:  getenv("INKPAD_SQLITE_PATH", "/data/inkpad.db"),
		SeedFile:    getenv("INKPAD_SEED_FILE", ""),

		// Identity and credentials
		SessionSecret:  requireEnv("INKPAD_SESSION_SECRET"),
		SessionIssuer:  getenv("INKPAD_SESSION_ISSUER", ""),
		LoginURL:       getenv("INKPAD_LOGIN_URL", "/login"),
		BcryptCost:     getenvInt("INKPAD_BCRYPT_COST", 12),
		PasswordBurst:  getenvInt("INKPAD_PASSWORD_RATE_BURST", 5),
		PasswordRefill: getenvInt("INKPAD_PASSWORD_RATE_PER_MIN", 5),
		TokenTTL:       mustDuration("INKPAD_TOKEN_TTL", 24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("INKPAD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("INKPAD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("INKPAD_TRUST_PROXY", true),
	}

	if cfg.StoreDriver == DriverRedis {
		cfg.loadRedis()
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) loadRedis() {
	c.RedisAddr = requireEnv("INKPAD_REDIS_ADDR")
	c.RedisUser = getenv("INKPAD_REDIS_USERNAME", "default")
	c.RedisPasswordRequired = mustBool("INKPAD_REDIS_PASSWORD_REQUIRED", true)
	c.RedisPassword = getenv("INKPAD_REDIS_PASSWORD", "")
	c.RedisDB = getenvInt("INKPAD_REDIS_DB", 0)
	c.RedisDT = mustDuration("INKPAD_REDIS_DIAL_TIMEOUT", 5*time.Second)
	c.RedisRT = mustDuration("INKPAD_REDIS_READ_TIMEOUT", 3*time.Second)
	c.RedisWT = mustDuration("INKPAD_REDIS_WRITE_TIMEOUT", 3*time.Second)
	c.RedisMaxWait = mustDuration("INKPAD_REDIS_MAX_WAIT", 10*time.Second)
	c.RedisPingTimeout = mustDuration("INKPAD_REDIS_PING_TIMEOUT", 5*time.Second)
	c.RedisPoolSize = getenvInt("INKPAD_REDIS_POOL_SIZE", 10)
	c.RedisConnectTimeout = mustDuration("INKPAD_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	c.RedisRetryInterval = mustDuration("INKPAD_REDIS_RETRY_INTERVAL", 2*time.Second)
	c.RedisWarnThreshold = getenvInt("INKPAD_REDIS_WARN_THRESHOLD", 3)
}

func (c *Config) validate() error {
	if !slices.Contains([]string{DriverRedis, DriverSQLite, DriverMemory}, c.StoreDriver) {
		return fmt.Errorf("INKPAD_STORE_DRIVER must be redis, sqlite or memory, got %q", c.StoreDriver)
	}
	if c.StoreDriver == DriverRedis && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("INKPAD_REDIS_PASSWORD is required when INKPAD_REDIS_PASSWORD_REQUIRED=true")
	}
	if c.StoreDriver == DriverSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("INKPAD_SQLITE_PATH is required when INKPAD_STORE_DRIVER=sqlite")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("INKPAD_SESSION_SECRET must be at least 32 bytes")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("INKPAD_BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("INKPAD_REQUEST_TIMEOUT must be > 0")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.SessionSecret = redacted
	if cp.RedisPassword != "" {
		cp.RedisPassword = redacted
	}
	if cp.RedisUser != "" {
		cp.RedisUser = redacted
	}
	return cp
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

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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
