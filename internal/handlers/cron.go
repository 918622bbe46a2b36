package handlers

import (
	"context"
	"net/http"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/reports"
)

// ReportSender runs usage report jobs.
type ReportSender interface {
	Send(ctx context.Context, f catalog.Frequency) (reports.Result, error)
	SendInternal(ctx context.Context) (reports.Result, error)
}

// Cron serves /cron, called by the scheduler with the cron secret.
type Cron struct {
	reports ReportSender
	guard   internal.Middleware
}

func NewCron(rs ReportSender, guard internal.Middleware) *Cron {
	return &Cron{reports: rs, guard: guard}
}

func (h *Cron) Routes(r internal.Router) {
	r.Route("/cron", func(r internal.Router) {
		r.Use(h.guard)
		r.GET("/usage-reports", h.usageReports)
		r.GET("/internal-usage-reports", h.internalUsageReports)
	})
}

func (h *Cron) usageReports(c internal.Context) error {
	f, err := catalog.ParseFrequency(c.Query("frequency"))
	if err != nil {
		return internal.ErrBadRequest("Invalid frequency", internal.WithError(err), internal.WithErrors(internal.ValidationErrors{
			{Field: "frequency", Message: "must be one of Daily, Weekly, Monthly, Never"},
		}))
	}
	res, err := h.reports.Send(c, f)
	if err != nil || res.State == reports.StateFailed {
		return internal.ErrInternal(res.Message(), internal.WithError(err))
	}
	return okResult(c, res.Message(), res)
}

func (h *Cron) internalUsageReports(c internal.Context) error {
	res, err := h.reports.SendInternal(c)
	if err != nil || res.State == reports.StateFailed {
		return internal.ErrInternal("Failed to complete internal usage reports cron job", internal.WithError(err))
	}
	message := res.Message()
	if res.State == reports.StateCompleted {
		message = "Internal usage reports cron job completed successfully"
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Result: res})
}
