package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFields_Constructors(t *testing.T) {
	now := time.Now()

	require.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	require.Equal(t, Field{Key: "k", Value: 1}, Int("k", 1))
	require.Equal(t, Field{Key: "k", Value: int64(2)}, Int64("k", int64(2)))
	require.Equal(t, Field{Key: "k", Value: now}, Time("k", now))
	require.Equal(t, Field{Key: "k", Value: time.Second}, Duration("k", time.Second))
	require.Equal(t, Field{Key: "k", Value: true}, Bool("k", true))
	require.Equal(t, Field{Key: "k", Value: struct{ A int }{A: 1}}, Any("k", struct{ A int }{A: 1}))

	err := errors.New("boom")
	require.Equal(t, Field{Key: "error", Value: err}, Err(err))
}

func TestNopLogger_NoPanic(t *testing.T) {
	l := Nop()
	l.Debug("d", String("k", "v"))
	l.Info("i", Int("n", 1))
	l.Warn("w")
	l.Error("e")

	l2 := l.With(String("x", "y"))
	require.NotNil(t, l2)

	require.NoError(t, l.Sync())
	require.NoError(t, l2.Sync())
}

func TestSlogAdapter_WritesTypedAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, LevelDebug).With(String("component", "orders"))

	l.Info("order assigned",
		String("order_id", "o-1"),
		Int("attempt", 2),
		Bool("retry", false),
		Duration("took", 1500*time.Millisecond),
		Err(errors.New("broker down")),
	)
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "order assigned", entry["msg"])
	require.Equal(t, "orders", entry["component"])
	require.Equal(t, "o-1", entry["order_id"])
	require.EqualValues(t, 2, entry["attempt"])
	require.Equal(t, false, entry["retry"])
	require.Equal(t, "broker down", entry["error"])
}

func TestSlogAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, LevelWarn)

	l.Debug("d")
	l.Info("i")
	require.Zero(t, buf.Len())

	l.Warn("w", String("k", "v"))
	l.Error("e")
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestSlogAdapter_WrapsExistingLogger(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	l := NewSlogAdapter(base)

	require.Len(t, toSlogAttrs([]Field{String("a", "b"), Int("n", 1)}), 2)
	l.With(String("x", "y")).Info("msg", Any("k", struct{ A int }{A: 1}))
	require.NoError(t, l.Sync())
}

func TestZapAdapter_WritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapAdapter(zap.New(core)).With(String("component", "orders"))

	l.Debug("d")
	l.Info("order assigned", String("order_id", "o-1"), Int("attempt", 2))
	l.Warn("w")
	l.Error("publish failed", Err(errors.New("broker down")))
	require.NoError(t, l.Sync())

	entries := logs.All()
	require.Len(t, entries, 4)

	info := entries[1]
	require.Equal(t, zapcore.InfoLevel, info.Level)
	require.Equal(t, "order assigned", info.Message)
	ctx := info.ContextMap()
	require.Equal(t, "orders", ctx["component"])
	require.Equal(t, "o-1", ctx["order_id"])
	require.EqualValues(t, 2, ctx["attempt"])

	require.Equal(t, "broker down", entries[3].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))

	require.Equal(t, slog.LevelWarn, LevelWarn.Slog())
	require.Equal(t, zapcore.DebugLevel, LevelDebug.Zap())
}
