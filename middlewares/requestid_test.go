package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an id", func(t *testing.T) {
		t.Parallel()

		var seen string
		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
			seen = middlewares.GetRequestID(c)
			return ok(c)
		}, middlewares.RequestID())

		require.NotEmpty(t, seen)
		require.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses caller id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := serve(t, req, ok, middlewares.RequestID())
		require.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("falls back to svix id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Svix-Id", "msg_2abc")
		w := serve(t, req, ok, middlewares.RequestID())
		require.Equal(t, "msg_2abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("rejects oversized and unprintable ids", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{strings.Repeat("a", 200), "has space"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", bad)
			w := serve(t, req, ok, middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "fresh" })))
			require.Equal(t, "fresh", w.Header().Get("X-Request-ID"))
		}
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace", "trace-1")
		req.Header.Set("X-Request-ID", "ignored")
		w := serve(t, req, ok, middlewares.RequestID(middlewares.WithRequestIDHeaders("X-Trace")))
		require.Equal(t, "trace-1", w.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()

	_, found := extract(context.Background())
	require.False(t, found)

	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
		attr, found := extract(c)
		require.True(t, found)
		require.Equal(t, "request_id", attr.Key)
		require.Equal(t, middlewares.GetRequestID(c), attr.Value.String())
		return nil
	}, middlewares.RequestID())
}
