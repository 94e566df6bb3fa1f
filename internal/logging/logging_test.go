package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Console: &buf})
	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = New(Options{Console: &buf, Debug: true})
	log.Named("ws").Debug("received action")
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), "received action")
	assert.Contains(t, buf.String(), "ws")
}

func TestProductionConsoleIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Console: &buf, Production: true, Debug: true})
	log.Debug("dropped")
	log.Info("kept")
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestFileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessonview.log")
	var buf bytes.Buffer
	log := New(Options{File: path, Console: &buf})
	log.Info("document reloaded")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"document reloaded"`)
}
