package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("CHANNEL_TOKEN_SECRET", "channel")
}

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("8000", cfg.Port)
	req.Equal(StorePostgres, cfg.StoreBackend)
	req.Equal(BrokerCentrifugo, cfg.Broker)
	req.Equal("HS256", cfg.JWTAlgorithm)
	req.Equal(time.Hour, cfg.CacheTTL)
	req.Equal(7*24*time.Hour, cfg.AccessTokenTTL)
	req.Equal(24*time.Hour, cfg.ChannelTokenTTL)
	req.Equal(5*time.Second, cfg.PublishTimeout)
	req.True(cfg.RunMigrations)
}

func TestLoadConfig_Overrides(t *testing.T) {
	req := require.New(t)
	setRequired(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BROKER", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("JWT_ALGORITHM", "HS512")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(StoreMemory, cfg.StoreBackend)
	req.Equal(BrokerRedis, cfg.Broker)
	req.Equal(90*time.Second, cfg.CacheTTL)
	req.False(cfg.RunMigrations)
	req.Equal("HS512", cfg.JWTAlgorithm)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing access secret", map[string]string{"JWT_SECRET": ""}},
		{"missing channel secret", map[string]string{"CHANNEL_TOKEN_SECRET": ""}},
		{"shared secret", map[string]string{"CHANNEL_TOKEN_SECRET": "access"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}},
		{"unknown broker", map[string]string{"BROKER": "nats"}},
		{"redis broker without redis", map[string]string{"BROKER": "redis", "REDIS_URL": ""}},
		{"bad duration", map[string]string{"CACHE_TTL": "soon"}},
		{"negative duration", map[string]string{"PUBLISH_TIMEOUT": "-1s"}},
		{"bad bool", map[string]string{"RUN_MIGRATIONS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
