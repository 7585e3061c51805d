package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. All values come
// from the environment so deployments stay twelve-factor.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	Ledger   LedgerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// LedgerConfig points the payment verifier at the external ledger service.
type LedgerConfig struct {
	// BaseURL of the ledger query API. Empty disables real verification,
	// which only makes sense in tests.
	BaseURL string
	// TreasuryAccount is the recipient a qualifying transfer must pay.
	TreasuryAccount string
	// QueryTimeout bounds a single block lookup. The registration call as a
	// whole has no timeout; a slow ledger only blocks its own caller.
	QueryTimeout time.Duration
}

// PostgresConfig holds the pgx pool settings. An empty DSN selects the
// in-memory stores.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

// RedisConfig holds connection settings for the shared consumed-reference
// set. An empty URL selects the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit pipeline settings. No brokers means audit events
// stay local.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("NAMEREG_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "namereg"),
		Ledger: LedgerConfig{
			BaseURL:         os.Getenv("LEDGER_URL"),
			TreasuryAccount: os.Getenv("LEDGER_TREASURY_ACCOUNT"),
			QueryTimeout:    envDurationOr("LEDGER_QUERY_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:      os.Getenv("POSTGRES_DSN"),
			MaxConns: int32(envIntOr("POSTGRES_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "namereg.audit"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
