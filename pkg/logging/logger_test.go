package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, InitLogger("debug", "json"))
	assert.True(t, GetLogger().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, InitLogger("not-a-level", "text"))
	assert.False(t, GetLogger().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, GetLogger().Core().Enabled(zapcore.InfoLevel))
}

func TestGetLoggerFallback(t *testing.T) {
	Logger = nil
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, WithComponent("test"))
}
