package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	JWTSigningKey  string
	JWTIssuer      string
	AdminToken     string
	RequestTimeout time.Duration

	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Enforcement EnforcementConfig
}

// DatabaseConfig configures the PostgreSQL pool. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit fan-out producer. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// EnforcementConfig holds tunables for the enforcement engine.
type EnforcementConfig struct {
	ConfirmationTokenTTL time.Duration
	TokenCleanupSchedule string
	AuditQueryMaxLimit   int
}

// Defaults used when the environment does not override them.
var (
	ConfirmationTokenTTL = 15 * time.Minute
	TokenCleanupSchedule = "@every 5m"
	AuditQueryMaxLimit   = 500
	RequestTimeout       = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           envOr("TRUSTGATE_ADDR", ":8080"),
		Environment:    envOr("ENVIRONMENT", "development"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		JWTSigningKey:  jwtSigningKey,
		JWTIssuer:      envOr("JWT_ISSUER", "trustgate"),
		AdminToken:     os.Getenv("ADMIN_API_TOKEN"),
		RequestTimeout: durationOr("REQUEST_TIMEOUT", RequestTimeout),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intOr("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intOr("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationOr("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "trustgate.enforcement.audit"),
		},
		Enforcement: EnforcementConfig{
			ConfirmationTokenTTL: durationOr("CONFIRMATION_TOKEN_TTL", ConfirmationTokenTTL),
			TokenCleanupSchedule: envOr("TOKEN_CLEANUP_SCHEDULE", TokenCleanupSchedule),
			AuditQueryMaxLimit:   intOr("AUDIT_QUERY_MAX_LIMIT", AuditQueryMaxLimit),
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// durationOr falls back when the value is missing, malformed or not positive.
func durationOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intOr(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
