package middlewares

import (
	"bytes"
	"io"
	"net/http"

	"github.com/Meeting-BaaS/emails/internal"
)

// MaxWebhookBody bounds the webhook payloads read for verification.
const MaxWebhookBody = 1 << 20

// WebhookVerifier checks a signed payload. *svix.Webhook implements it.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// Svix admits requests whose svix-id, svix-timestamp and svix-signature
// headers sign the raw body. The body is restored for the handler.
func Svix(v WebhookVerifier) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			body, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBody+1))
			if err != nil || len(body) > MaxWebhookBody {
				return internal.ErrUnauthorized("Unauthorized Webhook request")
			}
			if err := v.Verify(body, r.Header); err != nil {
				c.LogWarn("webhook signature rejected", "error", err.Error())
				return internal.ErrUnauthorized("Unauthorized Webhook request", internal.WithError(err))
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			return next(c)
		}
	}
}
