package handlers

import (
	"context"
	"errors"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/errorreport"
)

// ErrorReports sends the error report thread emails.
type ErrorReports interface {
	Report(ctx context.Context, who errorreport.Reporter, req errorreport.ReportRequest) (errorreport.Result, error)
	Reply(ctx context.Context, req errorreport.ReplyRequest) (errorreport.Result, error)
}

// ErrorReport serves /error-report. Filing needs a session; replying also
// needs the admin guard because it emails another account.
type ErrorReport struct {
	reports ErrorReports
	guard   internal.Middleware
	admin   internal.Middleware
}

func NewErrorReport(reports ErrorReports, guard, admin internal.Middleware) *ErrorReport {
	return &ErrorReport{reports: reports, guard: guard, admin: admin}
}

func (h *ErrorReport) Routes(r internal.Router) {
	r.Route("/error-report", func(r internal.Router) {
		r.Use(h.guard)
		r.POST("/new", h.report)
		r.POST("/reply", h.reply, h.admin)
	})
}

func (h *ErrorReport) report(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req errorreport.ReportRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	res, err := h.reports.Report(c, errorreport.Reporter{AccountID: u.ID, Email: u.Email, FirstName: u.FirstName}, req)
	if err != nil {
		return errorReportError(err, "Error processing error report")
	}
	return okResult(c, "Error report received and confirmation email sent", res)
}

func (h *ErrorReport) reply(c internal.Context) error {
	var req errorreport.ReplyRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	res, err := h.reports.Reply(c, req)
	if err != nil {
		return errorReportError(err, "Error processing error report reply")
	}
	return okResult(c, "Error report reply email sent", res)
}

func errorReportError(err error, fallback string) error {
	switch {
	case errors.Is(err, errorreport.ErrInvalidBotUUID):
		return internal.ErrBadRequest("Invalid request body", internal.WithError(err), internal.WithErrors(internal.ValidationErrors{
			{Field: "botUuid", Message: "must be a valid UUID"},
		}))
	case errors.Is(err, errorreport.ErrThreadNotFound), errors.Is(err, errorreport.ErrNoPriorMessage):
		return internal.ErrNotFound("No error report found for this bot", internal.WithError(err))
	case errors.Is(err, errorreport.ErrAccountNotFound):
		return internal.ErrNotFound("Account not found", internal.WithError(err))
	default:
		return internal.ErrInternal(fallback, internal.WithError(err))
	}
}
