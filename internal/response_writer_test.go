package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeader(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusTooManyRequests)

	require.Equal(t, http.StatusTooManyRequests, rw.Status())
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.True(t, rw.Written())
}

func TestResponseWriter_WriteHeader_OnlyOnce(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusNotFound)

	require.Equal(t, http.StatusCreated, rw.Status())
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestResponseWriter_Write(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	n, err := rw.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, int64(11), rw.Size())
	require.Equal(t, http.StatusOK, rw.Status())
	require.Equal(t, "hello world", w.Body.String())
}

func TestResponseWriter_ReusesExistingWrapper(t *testing.T) {
	t.Parallel()

	outer := NewResponseWriter(httptest.NewRecorder())
	inner := NewResponseWriter(outer)

	require.Same(t, outer, inner)

	inner.WriteHeader(http.StatusAccepted)
	require.True(t, outer.Written())
	require.Equal(t, http.StatusAccepted, outer.Status())
}

func TestResponseWriter_OnBeforeWrite(t *testing.T) {
	t.Parallel()

	t.Run("hooks run in order once", func(t *testing.T) {
		t.Parallel()

		rw := NewResponseWriter(httptest.NewRecorder())

		var order []int
		rw.OnBeforeWrite(func() { order = append(order, 1) })
		rw.OnBeforeWrite(func() { order = append(order, 2) })

		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("data"))

		require.Equal(t, []int{1, 2}, order)
	})

	t.Run("hooks run on implicit write", func(t *testing.T) {
		t.Parallel()

		rw := NewResponseWriter(httptest.NewRecorder())

		called := false
		rw.OnBeforeWrite(func() { called = true })
		_, _ = rw.Write([]byte("data"))

		require.True(t, called)
	})

	t.Run("hook can still set headers", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := NewResponseWriter(w)
		rw.OnBeforeWrite(func() { rw.Header().Set("X-Hook", "yes") })

		rw.WriteHeader(http.StatusOK)
		require.Equal(t, "yes", w.Header().Get("X-Hook"))
	})
}

func TestResponseWriter_FlushAndUnwrap(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.Flush()
	require.True(t, w.Flushed)
	require.Equal(t, http.ResponseWriter(w), rw.Unwrap())
}
