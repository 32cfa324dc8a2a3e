package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ifrit.log")

	logger, cleanup, err := New(path, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("collection opened")
	logger.Error("save failed")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "collection opened")
	assert.Contains(t, string(data), "save failed")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewBadPath(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), false)
	assert.Error(t, err)
}
