package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "CORS_ORIGINS", "JWT_TTL_HOURS", "VOTE_RATE_LIMIT", "REDIS_ADDR", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 60, cfg.VoteRateLimit)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, []byte("secret"), cfg.JWTSecret)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3")
	t.Setenv("PORT", "3000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("VOTE_RATE_LIMIT", "5")
	t.Setenv("JWT_TTL_HOURS", "not-a-number")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "votes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.VoteRateLimit)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL, "invalid value falls back to default")
	assert.Contains(t, cfg.DB.DSN(), "host=db")
	assert.Contains(t, cfg.DB.DSN(), "dbname=votes")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}
