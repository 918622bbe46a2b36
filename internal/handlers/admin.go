package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/broadcast"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/content"
	"github.com/Meeting-BaaS/emails/internal/preferences"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
)

type (
	SubscriberLister interface {
		Subscribers(ctx context.Context, id catalog.EmailID, f catalog.Frequency, emailSuffix string) ([]preferences.Subscriber, error)
	}
	ContentStore interface {
		Create(ctx context.Context, accountID int64, d content.Draft) (content.Content, error)
		Update(ctx context.Context, id int64, d content.Draft) (content.Content, error)
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, emailType catalog.EmailID) ([]content.Content, error)
	}
	Broadcaster interface {
		Send(ctx context.Context, req broadcast.Request) (broadcast.Result, error)
	}
	LogSearcher interface {
		Query(ctx context.Context, f sendlog.Filter) (sendlog.Page, error)
	}
)

// AdminDeps groups the collaborators of Admin.
type AdminDeps struct {
	Subscribers SubscriberLister
	Contents    ContentStore
	Broadcasts  Broadcaster
	Logs        LogSearcher
	// Guards run in order, session first.
	Guards []internal.Middleware
}

// Admin serves /admin for operators.
type Admin struct {
	d AdminDeps
}

func NewAdmin(d AdminDeps) *Admin {
	return &Admin{d: d}
}

func (h *Admin) Routes(r internal.Router) {
	r.Route("/admin", func(r internal.Router) {
		r.Use(h.d.Guards...)
		r.GET("/recipients", h.recipients)
		r.GET("/broadcast-types", h.broadcastTypes)
		r.GET("/content", h.listContent)
		r.POST("/content", h.createContent)
		r.PUT("/content/{id}", h.updateContent)
		r.DELETE("/content/{id}", h.deleteContent)
		r.POST("/send", h.send)
		r.GET("/logs", h.logs)
	})
}

type recipientsQuery struct {
	EmailID   catalog.EmailID   `query:"emailId" validate:"required"`
	Frequency catalog.Frequency `query:"frequency" validate:"required,oneof=Daily Weekly Monthly Never"`
}

func (h *Admin) recipients(c internal.Context) error {
	var q recipientsQuery
	if verrs, err := c.BindQuery(&q); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid query params", verrs)
	}
	if !q.EmailID.Valid() {
		return invalid("Invalid query params", internal.ValidationErrors{{Field: "emailId", Message: "must be a known email type"}})
	}
	subs, err := h.d.Subscribers.Subscribers(c, q.EmailID, q.Frequency, "")
	if err != nil {
		return internal.ErrInternal("Failed to fetch recipients", internal.WithError(err))
	}
	c.LogDebug("fetched recipients", "email_id", q.EmailID, "count", len(subs))
	return okData(c, subs)
}

func (h *Admin) broadcastTypes(c internal.Context) error {
	return okData(c, catalog.BroadcastTypes())
}

type contentRequest struct {
	EmailType   catalog.EmailID `json:"emailType" validate:"required"`
	Content     string          `json:"content" validate:"required"`
	ContentText string          `json:"contentText"`
	Format      content.Format  `json:"format" validate:"omitempty,oneof=html markdown"`
}

func (r contentRequest) draft() content.Draft {
	return content.Draft{EmailType: r.EmailType, Content: r.Content, ContentText: r.ContentText, Format: r.Format}
}

func (h *Admin) bindContent(c internal.Context) (contentRequest, error) {
	var req contentRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return req, err
	}
	if verrs == nil && !req.EmailType.Valid() {
		verrs = internal.ValidationErrors{{Field: "emailType", Message: "must be a known email type"}}
	}
	if verrs != nil {
		return req, invalid("Invalid request body", verrs)
	}
	return req, nil
}

func (h *Admin) listContent(c internal.Context) error {
	id := internal.Query[catalog.EmailID](c, "emailType")
	if id != "" && !id.Valid() {
		return invalid("Invalid query params", internal.ValidationErrors{{Field: "emailType", Message: "must be a known email type"}})
	}
	list, err := h.d.Contents.List(c, id)
	if err != nil {
		return internal.ErrInternal("Failed to fetch email content", internal.WithError(err))
	}
	return okData(c, list)
}

func (h *Admin) createContent(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := h.bindContent(c)
	if err != nil {
		return err
	}
	saved, err := h.d.Contents.Create(c, u.ID, req.draft())
	if err != nil {
		return contentError(err, "Failed to save email content")
	}
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: "Email content saved successfully", Data: saved})
}

func (h *Admin) updateContent(c internal.Context) error {
	id, found := internal.ParamOK[int64](c, "id")
	if !found || id <= 0 {
		return invalid("Invalid content id", internal.ValidationErrors{{Field: "id", Message: "must be a positive integer"}})
	}
	req, err := h.bindContent(c)
	if err != nil {
		return err
	}
	saved, err := h.d.Contents.Update(c, id, req.draft())
	if err != nil {
		return contentError(err, "Failed to update email content")
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: "Email content updated successfully", Data: saved})
}

func (h *Admin) deleteContent(c internal.Context) error {
	id, found := internal.ParamOK[int64](c, "id")
	if !found || id <= 0 {
		return invalid("Invalid content id", internal.ValidationErrors{{Field: "id", Message: "must be a positive integer"}})
	}
	if err := h.d.Contents.Delete(c, id); err != nil {
		return contentError(err, "Failed to delete email content")
	}
	return ok(c, http.StatusOK, "Email content deleted successfully")
}

func contentError(err error, fallback string) error {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return internal.ErrNotFound("Email content not found", internal.WithError(err))
	case errors.Is(err, content.ErrEmpty):
		return invalid("Invalid request body", internal.ValidationErrors{{Field: "content", Message: "Content cannot be empty"}})
	default:
		return internal.ErrInternal(fallback, internal.WithError(err))
	}
}

type sendRequest struct {
	EmailID    catalog.EmailID       `json:"emailId" validate:"required"`
	Frequency  catalog.Frequency     `json:"frequency" validate:"required,oneof=Daily Weekly Monthly Never"`
	Subject    string                `json:"subject"`
	ContentIDs []int64               `json:"contentIds" validate:"required,min=1,dive,gt=0"`
	Recipients []broadcast.Recipient `json:"recipients" validate:"required,min=1,dive"`
}

func (h *Admin) send(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req sendRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}

	res, err := h.d.Broadcasts.Send(c, broadcast.Request{
		EmailID:     req.EmailID,
		Frequency:   req.Frequency,
		Subject:     strings.TrimSpace(req.Subject),
		ContentIDs:  req.ContentIDs,
		Recipients:  req.Recipients,
		TriggeredBy: u.Email,
	})
	switch {
	case err == nil:
		return okResult(c, res.Subject+" email sent", res)
	case errors.Is(err, catalog.ErrNotBroadcast),
		errors.Is(err, broadcast.ErrContentNotFound),
		errors.Is(err, broadcast.ErrBatchTooLarge),
		errors.Is(err, broadcast.ErrNoRecipients),
		errors.Is(err, broadcast.ErrNoContent):
		return internal.ErrBadRequest(badBroadcastMessage(err), internal.WithError(err))
	default:
		return internal.ErrInternal("Error sending email", internal.WithError(err))
	}
}

func badBroadcastMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotBroadcast):
		return "Email type cannot be broadcast"
	case errors.Is(err, broadcast.ErrContentNotFound):
		return "Email content not found"
	case errors.Is(err, broadcast.ErrBatchTooLarge):
		return "Too many recipients"
	case errors.Is(err, broadcast.ErrNoRecipients):
		return "At least one recipient is required"
	default:
		return "At least one content is required"
	}
}

type logsQuery struct {
	Limit        int             `query:"limit" validate:"gte=1"`
	Offset       int             `query:"offset" validate:"gte=0"`
	EmailID      catalog.EmailID `query:"emailId"`
	AccountEmail string          `query:"accountEmail" validate:"omitempty,email"`
	StartDate    *time.Time      `query:"startDate"`
	EndDate      *time.Time      `query:"endDate"`
}

type logsResponse struct {
	Envelope
	HasMore bool `json:"hasMore"`
}

func (h *Admin) logs(c internal.Context) error {
	q := logsQuery{Limit: sendlog.HardLimit}
	verrs, err := c.BindQuery(&q)
	if err != nil {
		return err
	}
	if q.EmailID != "" && !q.EmailID.Valid() {
		verrs = append(verrs, internal.FieldError{Field: "emailId", Message: "must be a known email type"})
	}
	if q.StartDate != nil && q.EndDate != nil && !q.StartDate.Before(*q.EndDate) {
		verrs = append(verrs, internal.FieldError{Field: "startDate", Message: "Start date must be before end date"})
	}
	if verrs != nil {
		return invalid("Invalid query params", verrs)
	}

	page, err := h.d.Logs.Query(c, sendlog.Filter{
		Limit:        q.Limit,
		Offset:       q.Offset,
		EmailID:      q.EmailID,
		AccountEmail: q.AccountEmail,
		Start:        q.StartDate,
		End:          q.EndDate,
	})
	if err != nil {
		return internal.ErrInternal("Failed to fetch email logs", internal.WithError(err))
	}
	data := page.Data
	if data == nil {
		data = []sendlog.LogView{}
	}
	return c.JSON(http.StatusOK, logsResponse{Envelope: Envelope{Success: true, Data: data}, HasMore: page.HasMore})
}
