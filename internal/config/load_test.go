package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal env for a valid config; the rest comes from defaults.
func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROMPTQ_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PROMPTQ_AUTH_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("PROMPTQ_ENGINE_EXECUTOR_URL", "http://127.0.0.1:9222/execute")
}

func TestLoad(t *testing.T) {
	t.Run("defaults with required env", func(t *testing.T) {
		setValidEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, "http", cfg.Engine.Channel)
		assert.Equal(t, 1000, cfg.Engine.DelayMinMS)
		assert.Equal(t, 4000, cfg.Engine.DelayMaxMS)
		assert.False(t, cfg.Engine.StrictCompletion)
		assert.Zero(t, cfg.Engine.MaxRedirectRetries)
		assert.Equal(t, "http://127.0.0.1:9222", cfg.Engine.CDPURL)
		assert.Equal(t, 8089, cfg.Engine.AgentPort)
		assert.Equal(t, "local", cfg.MediaCache.Driver)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PROMPTQ_SERVER_PORT", "9000")
		t.Setenv("PROMPTQ_SERVER_LOG_LEVEL", "debug")
		t.Setenv("PROMPTQ_ENGINE_STRICT_COMPLETION", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
		assert.True(t, cfg.Engine.StrictCompletion)
	})

	t.Run("missing jwt secret fails validation", func(t *testing.T) {
		t.Setenv("PROMPTQ_AUTH_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		t.Setenv("PROMPTQ_ENGINE_EXECUTOR_URL", "http://127.0.0.1:9222/execute")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("short jwt secret fails validation", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PROMPTQ_AUTH_JWT_SECRET", "too-short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid log level fails validation", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PROMPTQ_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("gemini-api channel does not require executor url", func(t *testing.T) {
		t.Setenv("PROMPTQ_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("PROMPTQ_AUTH_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		t.Setenv("PROMPTQ_ENGINE_CHANNEL", "gemini-api")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "gemini-api", cfg.Engine.Channel)
	})
}
