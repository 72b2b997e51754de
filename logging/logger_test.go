package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = (*ComponentLogger)(nil)
	_ Logger = NoOpLogger{}
	_ Logger = (*SlogAdapter)(nil)
)

func newBufferLogger(level LogLevel) (*ComponentLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestComponentLogger_KeyValues(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.WithComponent("registry").WithContext("catalog", "cards").Info("loaded", "count", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "loaded", lines[0]["msg"])
	assert.Equal(t, "registry", lines[0]["component"])
	assert.Equal(t, "cards", lines[0]["catalog"])
	assert.EqualValues(t, 3, lines[0]["count"])
}

func TestComponentLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	assert.Len(t, decodeLines(t, buf), 2)
}

func TestComponentLogger_WithDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	_ = l.WithContext("k", "v")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["k"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf, Component: "gateway"})
	l.Info("forwarded", "agent", "price_agent")

	assert.Contains(t, buf.String(), "component=gateway")
	assert.Contains(t, buf.String(), "agent=price_agent")
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))
	l.Warn("careful", "n", 1)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
}

func TestComponentLogger_Slog(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.WithComponent("a2asrv").Slog().Info("task moved to failed state", "task_id", "t1")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "a2asrv", lines[0]["component"])
	assert.Equal(t, "t1", lines[0]["task_id"])
}
