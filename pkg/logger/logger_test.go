package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	Configure(Options{Level: level, JSON: true, Output: buf})
	t.Cleanup(func() { Configure(Options{Level: INFO, Output: os.Stderr}) })
	return buf
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		" warn ":  WARN,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "debug", DEBUG.String())
	assert.Equal(t, "error", ERROR.String())
	assert.Equal(t, "info", LogLevel(42).String())
}

func TestInfoCF_WritesComponentAndFields(t *testing.T) {
	buf := captureJSON(t, DEBUG)

	InfoCF("upload", "Extracted files", map[string]interface{}{"files": 2, "method": "sendMediaGroup"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "upload", entry["component"])
	assert.Equal(t, "sendMediaGroup", entry["method"])
	assert.Contains(t, buf.String(), "Extracted files")
}

func TestDebugCF_FilteredBelowLevel(t *testing.T) {
	buf := captureJSON(t, WARN)

	DebugCF("upload", "hidden", nil)
	InfoC("upload", "also hidden")
	WarnC("upload", "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestSetLevel(t *testing.T) {
	buf := captureJSON(t, ERROR)

	Warn("before")
	SetLevel(DEBUG)
	Debug("after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
}
