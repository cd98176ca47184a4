package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("compacted", "store", "incoming", "keys", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "compacted", entry["msg"])
	assert.Equal(t, "incoming", entry["store"])
	assert.EqualValues(t, 3, entry["keys"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug"}, &buf)

	l.Debug("loaded", "store", "outgoing")
	assert.Contains(t, buf.String(), "msg=loaded")
	assert.Contains(t, buf.String(), "store=outgoing")
}

func TestGetReturnsLogger(t *testing.T) {
	require.NotNil(t, Get())
	require.Same(t, Get(), Get())
}
