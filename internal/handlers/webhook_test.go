package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/internal/webhook"
)

type fakeEvents struct {
	matched bool
	err     error
	got     []webhook.Payload
}

func (f *fakeEvents) Record(_ context.Context, p webhook.Payload) (bool, error) {
	f.got = append(f.got, p)
	return f.matched, f.err
}

func passThrough(next internal.HandlerFunc) internal.HandlerFunc { return next }

func TestWebhook(t *testing.T) {
	t.Parallel()

	body := `{"type":"email.delivered","created_at":"2025-02-01T10:00:00.000Z","data":{"email_id":"re_9","created_at":"2025-02-01T09:59:00.000Z"}}`

	t.Run("records event", func(t *testing.T) {
		t.Parallel()

		events := &fakeEvents{matched: true}
		res := do(t, newApp(handlers.NewWebhook(events, passThrough)), http.MethodPost, "/webhook/email-status", body)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, "Email status webhook received", res.Body["message"])
		require.Len(t, events.got, 1)
		require.Equal(t, "re_9", events.got[0].Data.EmailID)
	})

	t.Run("unknown event type", func(t *testing.T) {
		t.Parallel()

		events := &fakeEvents{}
		res := do(t, newApp(handlers.NewWebhook(events, passThrough)), http.MethodPost, "/webhook/email-status",
			`{"type":"email.exploded","created_at":"2025-02-01T10:00:00Z","data":{"email_id":"re_9"}}`)
		require.Equal(t, http.StatusBadRequest, res.Code)
		require.Empty(t, events.got)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		events := &fakeEvents{err: errors.New("db down")}
		res := do(t, newApp(handlers.NewWebhook(events, passThrough)), http.MethodPost, "/webhook/email-status", body)
		require.Equal(t, http.StatusInternalServerError, res.Code)
	})
}
