package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "shop-api", cfg.ServiceName)
	assert.Equal(t, int32(8), cfg.DBMaxConns)
	assert.Equal(t, int32(1), cfg.DBMinConns)
	assert.Equal(t, 5*time.Second, cfg.StatementTimeout)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.OrderCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_MAX_CONNS", "16")
	t.Setenv("DB_MIN_CONNS", "4")
	t.Setenv("DB_STATEMENT_TIMEOUT", "250ms")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,,k2:9092")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, int32(16), cfg.DBMaxConns)
	assert.Equal(t, int32(4), cfg.DBMinConns)
	assert.Equal(t, 250*time.Millisecond, cfg.StatementTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"min above max", map[string]string{"DB_MIN_CONNS": "10", "DB_MAX_CONNS": "2"}},
		{"negative timeout", map[string]string{"DB_STATEMENT_TIMEOUT": "-1s"}},
		{"bad int", map[string]string{"DB_MAX_CONNS": "many"}},
		{"bad duration", map[string]string{"ORDER_CACHE_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
