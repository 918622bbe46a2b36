// Package webhook records provider delivery events against the email_logs
// row of the message they describe.
package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/Meeting-BaaS/emails/internal/sendlog"
)

// Event types sent by the provider.
const (
	EmailSent            = "email.sent"
	EmailDelivered       = "email.delivered"
	EmailDeliveryDelayed = "email.delivery_delayed"
	EmailComplained      = "email.complained"
	EmailBounced         = "email.bounced"
	EmailOpened          = "email.opened"
	EmailClicked         = "email.clicked"
)

// Payload is the body of an email status webhook.
type Payload struct {
	Type      string `json:"type" validate:"required,oneof=email.sent email.delivered email.delivery_delayed email.complained email.bounced email.opened email.clicked"`
	CreatedAt string `json:"created_at" validate:"required"`
	Data      Data   `json:"data"`
}

type Data struct {
	EmailID   string `json:"email_id" validate:"required"`
	CreatedAt string `json:"created_at"`
	Click     *Click `json:"click,omitempty"`
}

type Click struct {
	Link string `json:"link"`
}

type (
	Appender interface {
		AppendWebhookEvent(ctx context.Context, providerID string, ev sendlog.Event) (bool, error)
	}
	Observer interface {
		WebhookEvent(eventType string, matched bool)
	}
)

// Service appends events to email_logs.
type Service struct {
	logs     Appender
	observer Observer
	log      *slog.Logger
	now      func() time.Time
}

func NewService(logs Appender, observer Observer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{logs: logs, observer: observer, log: log, now: time.Now}
}

// Record appends p to the log row of its email. matched is false when no
// row was sent with that provider id, which is not an error: the provider
// also reports emails sent by other services on the same account.
func (s *Service) Record(ctx context.Context, p Payload) (matched bool, err error) {
	ev := sendlog.Event{Type: p.Type, CreatedAt: s.eventTime(p)}
	if p.Data.Click != nil {
		ev.Link = p.Data.Click.Link
	}

	matched, err = s.logs.AppendWebhookEvent(ctx, p.Data.EmailID, ev)
	if err != nil {
		return false, err
	}
	if s.observer != nil {
		s.observer.WebhookEvent(p.Type, matched)
	}
	if !matched {
		s.log.DebugContext(ctx, "webhook event for unknown email",
			slog.String("type", p.Type), slog.String("email_id", p.Data.EmailID))
	}
	return matched, nil
}

func (s *Service) eventTime(p Payload) time.Time {
	for _, v := range []string{p.CreatedAt, p.Data.CreatedAt} {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return s.now().UTC()
}
