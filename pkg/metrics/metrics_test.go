package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveSend("batch", 3, nil, 20*time.Millisecond)
	m.ObserveSend("single", 1, errors.New("boom"), time.Millisecond)
	m.CooldownError("system")
	m.ReportRun("Daily", "done")
	m.WebhookEvent("email.delivered", true)
	m.ObserveHTTP(http.MethodGet, http.StatusOK, time.Millisecond)
	m.SessionLookup("cache")

	require.InDelta(t, 3, testutil.ToFloat64(m.EmailsSent.WithLabelValues("batch", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.EmailsSent.WithLabelValues("single", "failure")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.CooldownErrors.WithLabelValues("system")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.ReportRuns.WithLabelValues("Daily", "done")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.WebhookEvents.WithLabelValues("email.delivered", "true")), 0)

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "emails_sent_total")
	require.Contains(t, w.Body.String(), "emails_http_request_duration_seconds")
}
