package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dronefield/internal/logging"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone.log")
	logger, err := logging.New("info", "json", path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("session started", zap.String("world", "downtown"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry), "exactly one json line expected, got %q", raw)
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "downtown", entry["world"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewConsole(t *testing.T) {
	logger, err := logging.New("DEBUG", "console", filepath.Join(t.TempDir(), "c.log"))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := logging.New("loud", "json")
	assert.Error(t, err)

	_, err = logging.New("info", "xml")
	assert.Error(t, err)
}
