package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/internal/reports"
	"github.com/Meeting-BaaS/emails/middlewares"
)

type fakeReports struct {
	res  reports.Result
	err  error
	freq catalog.Frequency
}

func (f *fakeReports) Send(_ context.Context, freq catalog.Frequency) (reports.Result, error) {
	f.freq = freq
	return f.res, f.err
}

func (f *fakeReports) SendInternal(context.Context) (reports.Result, error) {
	return f.res, f.err
}

func TestCron(t *testing.T) {
	t.Parallel()

	bearer := []string{"Authorization", "Bearer cron-secret"}

	t.Run("rejects missing secret", func(t *testing.T) {
		t.Parallel()

		app := newApp(handlers.NewCron(&fakeReports{}, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/usage-reports?frequency=Daily", "", "x-api-key", "cron-secret")
		require.Equal(t, http.StatusUnauthorized, res.Code)
		require.Equal(t, "Unauthorized cron request", res.Body["message"])
	})

	t.Run("parses frequency case-insensitively", func(t *testing.T) {
		t.Parallel()

		rs := &fakeReports{res: reports.Result{State: reports.StateCompleted, Recipients: 3, Sent: 3, Batches: 1}}
		app := newApp(handlers.NewCron(rs, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/usage-reports?frequency=weekly", "", bearer...)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, catalog.Weekly, rs.freq)
		require.Equal(t, "Usage reports cron job completed successfully", res.Body["message"])
		require.Equal(t, float64(3), res.Body["result"].(map[string]any)["sent"])
	})

	t.Run("invalid frequency", func(t *testing.T) {
		t.Parallel()

		app := newApp(handlers.NewCron(&fakeReports{}, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/usage-reports?frequency=hourly", "", bearer...)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("disabled is a success", func(t *testing.T) {
		t.Parallel()

		app := newApp(handlers.NewCron(&fakeReports{res: reports.Result{State: reports.StateDisabled}}, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/usage-reports?frequency=Daily", "", bearer...)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, "Usage reports cron job is disabled", res.Body["message"])
	})

	t.Run("failed batch", func(t *testing.T) {
		t.Parallel()

		rs := &fakeReports{res: reports.Result{State: reports.StateFailed}, err: reports.ErrBatchFailed}
		app := newApp(handlers.NewCron(rs, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/usage-reports?frequency=Daily", "", bearer...)
		require.Equal(t, http.StatusInternalServerError, res.Code)
		require.Equal(t, "Failed to complete usage reports cron job", res.Body["message"])
	})

	t.Run("internal report", func(t *testing.T) {
		t.Parallel()

		rs := &fakeReports{res: reports.Result{State: reports.StateCompleted, Sent: 4}}
		app := newApp(handlers.NewCron(rs, middlewares.CronSecret("cron-secret")))
		res := do(t, app, http.MethodGet, "/cron/internal-usage-reports", "", bearer...)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, "Internal usage reports cron job completed successfully", res.Body["message"])

		rs.err = errors.New("db down")
		rs.res = reports.Result{State: reports.StateFailed}
		res = do(t, app, http.MethodGet, "/cron/internal-usage-reports", "", bearer...)
		require.Equal(t, http.StatusInternalServerError, res.Code)
	})
}
