package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/middlewares"
)

func TestSecure(t *testing.T) {
	t.Parallel()

	w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), ok, middlewares.Secure())
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

type httpObs struct {
	mu       sync.Mutex
	statuses []int
}

func (o *httpObs) ObserveHTTP(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	obs := &httpObs{}
	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), ok, middlewares.RequestLogger(obs))
	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(internal.Context) error {
		return internal.ErrNotFound("missing")
	}, middlewares.RequestLogger(obs))
	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(internal.Context) error {
		return errors.New("boom")
	}, middlewares.RequestLogger(obs))

	require.Equal(t, []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError}, obs.statuses)
}
