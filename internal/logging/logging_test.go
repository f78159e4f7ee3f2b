package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewHonoursLevelOverride(t *testing.T) {
	logger, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = New("development", "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("production", "loud")
	assert.Error(t, err)
}
