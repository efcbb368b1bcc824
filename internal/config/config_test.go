package config

import (
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DSN_PRIMARY": "user:pass@tcp(localhost:3306)/shop?parseTime=true",
		"JWT_SECRET":     "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, database.DriverMySQL, cfg.DBDriver)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "order-events", cfg.KafkaTopic)
	assert.Equal(t, time.Minute, cfg.OutboxInterval)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.OperatorEmail)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DRIVER":       "sqlite",
		"DB_DSN_PRIMARY":  "file:shop.db",
		"JWT_SECRET":      "s3cret",
		"JWT_TTL":         "1h",
		"KAFKA_BROKERS":   "k1:9092, k2:9092,",
		"ADMIN_EMAIL":     "ops@example.com",
		"ASYNC_DISPATCH":  "true",
		"OUTBOX_INTERVAL": "30s",
	}))
	require.NoError(t, err)

	assert.Equal(t, database.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "ops@example.com", cfg.OperatorEmail)
	assert.True(t, cfg.AsyncDispatch)
	assert.Equal(t, 30*time.Second, cfg.OutboxInterval)
}

func TestFromEnvNamesEveryBadVariable(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"DB_DRIVER": "postgres"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "DB_DSN_PRIMARY")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	_, err = FromEnv(env(map[string]string{
		"DB_DSN_PRIMARY": "x",
		"JWT_SECRET":     "y",
		"JWT_TTL":        "forever",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_TTL")
}
