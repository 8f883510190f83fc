package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/promptq/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level falls back to info", "verbose"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: tc.logLevel})
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Run("returns default when unset", func(t *testing.T) {
		assert.Equal(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("round-trips an attached logger", func(t *testing.T) {
		attached := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := WithLogger(context.Background(), attached)
		assert.Same(t, attached, FromContext(ctx))
	})
}
