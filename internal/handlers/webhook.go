package handlers

import (
	"context"
	"net/http"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/webhook"
)

// EventRecorder stores provider delivery events.
type EventRecorder interface {
	Record(ctx context.Context, p webhook.Payload) (bool, error)
}

// Webhook serves /webhook, called by the provider with a signed body.
type Webhook struct {
	events EventRecorder
	guard  internal.Middleware
}

func NewWebhook(events EventRecorder, guard internal.Middleware) *Webhook {
	return &Webhook{events: events, guard: guard}
}

func (h *Webhook) Routes(r internal.Router) {
	r.Route("/webhook", func(r internal.Router) {
		r.Use(h.guard)
		r.POST("/email-status", h.emailStatus)
	})
}

func (h *Webhook) emailStatus(c internal.Context) error {
	var p webhook.Payload
	if verrs, err := c.BindJSON(&p); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid webhook payload", verrs)
	}
	matched, err := h.events.Record(c, p)
	if err != nil {
		return internal.ErrInternal("Error recording email status", internal.WithError(err))
	}
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: "Email status webhook received",
		Result:  map[string]bool{"matched": matched},
	})
}
