package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	StoragePath string
	UploadsDir  string

	LogLevel  string
	LogFormat string

	// VerifySignatures turns on linked-data proof checks for every wallet
	// response. Off by default; structural submission checks always run.
	VerifySignatures     bool
	SignatureVerifierURL string

	// AdminToken guards device and setup administration. Admin routes are
	// not mounted when it is empty.
	AdminToken string

	// TrustedProxies are CIDRs or addresses allowed to set forwarding
	// headers. Empty means the TCP peer is always the client.
	TrustedProxies []string

	DID       DIDConfig
	Redis     RedisConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
}

// DIDConfig tunes DID resolution.
type DIDConfig struct {
	HTTPTimeout time.Duration
	CacheSize   int
	CacheTTL    time.Duration
	// InsecureWeb resolves did:web over plain HTTP. Local development only.
	InsecureWeb bool
}

// RedisConfig configures the optional shared DID document cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig holds per-client request budgets, per minute.
type RateLimitConfig struct {
	Disabled bool
	Wallet   int
	Result   int
	Device   int
	Window   time.Duration
}

// AuditConfig configures audit event delivery.
type AuditConfig struct {
	Buffer       int
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                 envOr("VERIFIER_ADDR", ":3000"),
		StoragePath:          envOr("STORAGE_FILE", "storage.json"),
		UploadsDir:           envOr("UPLOADS_DIR", "uploads"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		LogFormat:            envOr("LOG_FORMAT", "json"),
		VerifySignatures:     os.Getenv("VERIFY_SIGNATURES") == "true",
		SignatureVerifierURL: os.Getenv("SIGNATURE_VERIFIER_URL"),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		TrustedProxies:       envList("TRUSTED_PROXIES"),
		DID: DIDConfig{
			HTTPTimeout: envDuration("DID_HTTP_TIMEOUT", 10*time.Second),
			CacheSize:   envInt("DID_CACHE_SIZE", 256),
			CacheTTL:    envDuration("DID_CACHE_TTL", 5*time.Minute),
			InsecureWeb: os.Getenv("DID_WEB_INSECURE") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: AuditConfig{
			Buffer:       envInt("AUDIT_BUFFER", 256),
			KafkaBrokers: envList("KAFKA_BROKERS"),
			KafkaTopic:   envOr("KAFKA_AUDIT_TOPIC", "verifier.audit"),
		},
		RateLimit: RateLimitConfig{
			Disabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
			Wallet:   envInt("RATE_LIMIT_WALLET", 120),
			Result:   envInt("RATE_LIMIT_RESULT", 30),
			Device:   envInt("RATE_LIMIT_DEVICE", 120),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
