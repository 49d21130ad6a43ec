package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/retail")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.App.Development())
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, "300-M", cfg.HTTP.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "US", cfg.PhoneRegion)
	assert.EqualValues(t, 20, cfg.DB.MaxConns)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.HTTP.StatusOverrideRoles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/retail")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BALANCE_CACHE_TTL", "1m")
	t.Setenv("ACTOR_OVERRIDE_RULE", `"owner" in roles`)
	t.Setenv("STATUS_OVERRIDE_ROLES", "admin,manager")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.False(t, cfg.App.Development())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, time.Minute, cfg.BalanceCacheTTL)
	assert.Equal(t, `"owner" in roles`, cfg.ActorOverrideRule)
	assert.Equal(t, []string{"admin", "manager"}, cfg.HTTP.StatusOverrideRoles)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("database url required", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := load(viper.New())
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("jwt secret required in production", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db/retail")
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := load(viper.New())
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}
