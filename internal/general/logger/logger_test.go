package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLoggerWritesContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("dispatch-service", &buf)

	ctx := l.WithRequestID(context.Background(), "req-1")
	ctx = l.WithOrderID(ctx, "o-1")
	l.Info(ctx, "dispatch_completed", " driver assigned ", map[string]any{"driver_id": "d-1"})
	l.Error(ctx, "", "booking failed", errors.New("boom"), nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	info := lines[0]
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "dispatch-service", info["service"])
	assert.Equal(t, "dispatch_completed", info["action"])
	assert.Equal(t, "driver assigned", info["message"])
	assert.Equal(t, "req-1", info["request_id"])
	assert.Equal(t, "o-1", info["order_id"])
	assert.NotEmpty(t, info["hostname"])
	assert.Equal(t, map[string]any{"driver_id": "d-1"}, info["details"])

	errLine := lines[1]
	assert.Equal(t, "error", errLine["level"])
	assert.Equal(t, "unspecified", errLine["action"])
	assert.Equal(t, "boom", errLine["error"])
	assert.NotEmpty(t, errLine["stack"])
	assert.NotContains(t, errLine, "details")
}

func TestLoggerWithoutContextValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("", &buf)

	assert.Equal(t, context.Background(), l.WithRequestID(context.Background(), "  "))
	l.Warn(context.Background(), "slow", "slow path", nil)
	l.Error(context.Background(), "x", "nil error", nil, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "unknown-service", lines[0]["service"])
	assert.NotContains(t, lines[0], "request_id")
	assert.Equal(t, "unknown error", lines[1]["error"])
}

func TestNewConsoleMode(t *testing.T) {
	require.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()

	l := New("test")
	require.NotNil(t, l)
	l.Debug(context.Background(), "debug", "console", map[string]any{"k": 1})
	Nop().Info(context.Background(), "ignored", "nothing", nil)
}
