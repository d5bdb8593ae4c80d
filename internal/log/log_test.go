package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerWithoutInit(t *testing.T) {
	defaultLogger = nil
	logger := GetLogger()
	require.NotNil(t, logger)

	// Repeated calls return the same instance.
	assert.Same(t, logger, GetLogger())
}

func TestInitReplacesDefault(t *testing.T) {
	Init(false)
	first := GetLogger()

	Init(true)
	second := GetLogger()

	assert.NotSame(t, first, second)
}

func TestNewSlogAdapter(t *testing.T) {
	logger := NewSlogAdapter(slog.Default())
	require.NotNil(t, logger)

	// Must not panic with structured args.
	logger.Debug("debug", "key", "value")
	logger.Info("info", "count", 3)
	logger.Warn("warn")
	logger.Error("error", "err", assert.AnError)
}
