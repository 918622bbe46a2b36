package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
)

func TestIsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct HTTPError", func(t *testing.T) {
		t.Parallel()
		err := internal.NewHTTPError(http.StatusNotFound, "not found")
		require.True(t, internal.IsHTTPError(err))
	})

	t.Run("wrapped HTTPError", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.ErrBadRequest("bad request")
		err := fmt.Errorf("handler failed: %w", httpErr)
		require.True(t, internal.IsHTTPError(err))
	})

	t.Run("unrelated error", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(errors.New("something went wrong")))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(nil))
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("wrapped HTTPError preserves fields", func(t *testing.T) {
		t.Parallel()

		next := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		cause := errors.New("cooldown")
		httpErr := internal.ErrTooManyRequests("Insufficient tokens email cooldown",
			internal.WithNextAvailableAt(next),
			internal.WithError(cause),
		)
		err := fmt.Errorf("account: %w", httpErr)

		got := internal.AsHTTPError(err)
		require.NotNil(t, got)
		require.Equal(t, http.StatusTooManyRequests, got.Code)
		require.Equal(t, "Insufficient tokens email cooldown", got.Message)
		require.NotNil(t, got.NextAvailableAt)
		require.True(t, next.Equal(*got.NextAvailableAt))
		require.ErrorIs(t, err, cause)
	})

	t.Run("unrelated error returns nil", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(errors.New("plain error")))
	})

	t.Run("nil returns nil", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(nil))
	})
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	cases := map[int]*internal.HTTPError{
		http.StatusBadRequest:          internal.ErrBadRequest("x"),
		http.StatusUnauthorized:        internal.ErrUnauthorized("x"),
		http.StatusForbidden:           internal.ErrForbidden("x"),
		http.StatusNotFound:            internal.ErrNotFound("x"),
		http.StatusUnprocessableEntity: internal.ErrUnprocessable("x"),
		http.StatusTooManyRequests:     internal.ErrTooManyRequests("x"),
		http.StatusInternalServerError: internal.ErrInternal("x"),
		http.StatusServiceUnavailable:  internal.ErrServiceUnavailable("x"),
	}
	for code, err := range cases {
		require.Equal(t, code, err.StatusCode())
		require.Equal(t, http.StatusText(code), err.StatusText())
	}
}
