package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "salesboard/internal/core/context"
)

func TestFromContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "sales analysis", "rows", 3)

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.EqualValues(t, 3, fields["rows"])
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := (&Logger{zap.New(core).Sugar()}).WithComponent("reports")

	l.Infow("loaded")

	assert.Equal(t, "reports", logs.All()[0].ContextMap()["component"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "verbose", OutputPaths: []string{"stderr"}})
	assert.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	core, logs := observer.New(zap.InfoLevel)
	SetDefault(&Logger{zap.New(core).Sugar()})

	Warn(context.Background(), "dropped invalid sales rows", "dropped", 2)

	assert.Len(t, logs.All(), 1)
	assert.Equal(t, "dropped invalid sales rows", logs.All()[0].Message)
}

func TestNew_JSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	l, err := New(Config{
		Level:       "info",
		Format:      FormatJSON,
		OutputPaths: []string{path},
		Fields:      map[string]any{"app": "salesboard", "version": "test"},
	})
	require.NoError(t, err)

	l.Infow("sales analysis", "filtered_rows", 2)
	l.Debugw("not written")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sales analysis", entry["msg"])
	assert.Equal(t, "salesboard", entry["app"])
	assert.Equal(t, "test", entry["version"])
	assert.EqualValues(t, 2, entry["filtered_rows"])
}

func TestWithContext_NoTrace(t *testing.T) {
	l := NewNop()
	assert.Same(t, l, l.WithContext(context.Background()))
}
