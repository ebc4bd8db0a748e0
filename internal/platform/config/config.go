package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "fiscus/pkg/platform/strings"
)

// Config captures everything the server needs from its environment. Postgres,
// Redis, and Kafka are optional: when their URLs are empty the server falls
// back to in-memory stores, no read cache, and no audit relay.
type Config struct {
	Addr string

	// PostgresURL selects the durable store backend when set.
	PostgresURL string

	Redis RedisConfig

	// KafkaBrokers and KafkaAuditTopic enable the audit outbox relay.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// JWTSigningKey signs and validates authority bearer tokens.
	JWTSigningKey string
	// AuthoritySubject is the single caller identity permitted to mutate the
	// registry. Deployment establishes it once, like a contract owner.
	AuthoritySubject string

	// EntityCacheTTL bounds staleness of the Redis entity snapshot cache.
	EntityCacheTTL time.Duration

	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("FISCUS_ADDR", ":8080"),
		PostgresURL:      os.Getenv("FISCUS_POSTGRES_URL"),
		KafkaAuditTopic:  envOr("FISCUS_KAFKA_AUDIT_TOPIC", "fiscus.audit"),
		JWTSigningKey:    envOr("FISCUS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AuthoritySubject: envOr("FISCUS_AUTHORITY_SUBJECT", "central-government"),
		EntityCacheTTL:   envDurationOr("FISCUS_ENTITY_CACHE_TTL", 30*time.Second),
		ShutdownTimeout:  envDurationOr("FISCUS_SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("FISCUS_REDIS_URL"),
			PoolSize:     envIntOr("FISCUS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("FISCUS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("FISCUS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("FISCUS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("FISCUS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	if brokers := os.Getenv("FISCUS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
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
