package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestStdoutHandler_RedactsAndExtracts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newStdoutHandler(&buf, Config{Level: "debug", Redact: []string{"Authorization", " x-api-key "}})
	log := slog.New(WithExtractors(h, nil, func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(ctxKey{}).(string)
		return slog.String("request_id", v), ok
	}))

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.DebugContext(ctx, "incoming",
		slog.String("authorization", "Bearer secret"),
		slog.String("X-API-KEY", "k"),
		slog.String("path", "/unsubscribe"),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, redacted, rec["authorization"])
	require.Equal(t, redacted, rec["X-API-KEY"])
	require.Equal(t, "/unsubscribe", rec["path"])
	require.Equal(t, "req-1", rec["request_id"])
}

func TestStdoutHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newStdoutHandler(&buf, Config{Level: "warn", Format: "text"}))
	log.Info("hidden")
	require.Zero(t, buf.Len())
	log.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestTee_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := slog.NewJSONHandler(&buf, nil)
	m := tee{failingHandler{Handler: ok}, ok}

	err := slog.New(m).Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "msg", 0))
	require.Error(t, err)
	require.Contains(t, buf.String(), `"msg":"msg"`)
}

func TestNewWithSentry_NoDSNFallsBack(t *testing.T) {
	t.Parallel()

	log := NewWithSentry(Config{}, SentryConfig{})
	require.NotNil(t, log)
	require.NoError(t, Flush()(context.Background()))
}

func TestWithExtractors_SkipsEmptyValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(WithExtractors(newStdoutHandler(&buf, Config{}), func(ctx context.Context) (slog.Attr, bool) {
		return slog.String("request_id", ""), true
	}))
	log.With(slog.String("component", "reports")).InfoContext(context.Background(), "run")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.NotContains(t, rec, "request_id")
	require.Equal(t, "reports", rec["component"])
}

func TestWithExtractors_NoExtractorsReturnsNext(t *testing.T) {
	t.Parallel()

	h := slog.DiscardHandler
	require.Equal(t, h, WithExtractors(h, nil))
}
