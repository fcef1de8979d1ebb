package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"TRUSTGATE_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"CONFIRMATION_TOKEN_TTL", "TOKEN_CLEANUP_SCHEDULE", "AUDIT_QUERY_MAX_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Enforcement.ConfirmationTokenTTL)
	assert.Equal(t, "@every 5m", cfg.Enforcement.TokenCleanupSchedule)
	assert.Equal(t, 500, cfg.Enforcement.AuditQueryMaxLimit)
	assert.NotEmpty(t, cfg.JWTSigningKey)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TRUSTGATE_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/trustgate")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092,broker-2:9092 ")
	t.Setenv("CONFIRMATION_TOKEN_TTL", "2m")
	t.Setenv("AUDIT_QUERY_MAX_LIMIT", "100")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/trustgate", cfg.Database.URL)
	assert.Equal(t, "broker-1:9092,broker-2:9092", cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Minute, cfg.Enforcement.ConfirmationTokenTTL)
	assert.Equal(t, 100, cfg.Enforcement.AuditQueryMaxLimit)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CONFIRMATION_TOKEN_TTL", "soon")
	t.Setenv("REQUEST_TIMEOUT", "-5s")
	t.Setenv("AUDIT_QUERY_MAX_LIMIT", "many")

	cfg := FromEnv()

	assert.Equal(t, ConfirmationTokenTTL, cfg.Enforcement.ConfirmationTokenTTL)
	assert.Equal(t, RequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, AuditQueryMaxLimit, cfg.Enforcement.AuditQueryMaxLimit)
}
