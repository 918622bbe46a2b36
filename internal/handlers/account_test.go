package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/account"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/middlewares"
)

type fakeAccount struct {
	err     error
	created bool
	seeded  []int64
	links   []account.LinkRequest
}

func (f *fakeAccount) InsufficientTokens(_ context.Context, req account.InsufficientTokensRequest) (account.Sent, error) {
	return account.Sent{ID: "re_1"}, f.err
}

func (f *fakeAccount) PaymentActivation(_ context.Context, req account.PaymentActivationRequest) (account.Sent, error) {
	return account.Sent{ID: "re_2"}, f.err
}

func (f *fakeAccount) VerificationLink(_ context.Context, req account.LinkRequest) (account.Sent, error) {
	f.links = append(f.links, req)
	return account.Sent{ID: "re_3"}, f.err
}

func (f *fakeAccount) ResetPassword(_ context.Context, req account.LinkRequest) (account.Sent, error) {
	f.links = append(f.links, req)
	return account.Sent{ID: "re_4"}, f.err
}

func (f *fakeAccount) SeedDefaultPreferences(_ context.Context, accountID int64) (bool, error) {
	f.seeded = append(f.seeded, accountID)
	return f.created, f.err
}

func TestAccount(t *testing.T) {
	t.Parallel()

	key := []string{"x-api-key", "secret"}
	next := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	tokensBody := `{"account_id":5,"email":"a@b.co","first_name":"Al","available_tokens":1,"required_tokens":4}`

	tests := []struct {
		name    string
		err     error
		path    string
		body    string
		headers []string
		code    int
		message string
	}{
		{name: "missing api key", path: "/account/insufficient-tokens", body: tokensBody, code: http.StatusUnauthorized, message: "Unauthorized API request"},
		{name: "sent", path: "/account/insufficient-tokens", body: tokensBody, headers: key, code: http.StatusOK, message: "Insufficient tokens email sent"},
		{name: "invalid body", path: "/account/insufficient-tokens", body: `{"account_id":0}`, headers: key, code: http.StatusBadRequest, message: "Invalid request body"},
		{name: "unsubscribed is not a failure", err: account.ErrUnsubscribed, path: "/account/payment-activation", body: `{"account_id":5,"email":"a@b.co"}`, headers: key, code: http.StatusOK, message: "Account is not subscribed to activity-updates"},
		{name: "cooldown", err: &account.CooldownError{NextAvailableAt: next}, path: "/account/payment-activation", body: `{"account_id":5,"email":"a@b.co"}`, headers: key, code: http.StatusTooManyRequests, message: "Payment activation email cooldown"},
		{name: "provider failure", err: errors.New("resend down"), path: "/account/insufficient-tokens", body: tokensBody, headers: key, code: http.StatusInternalServerError, message: "Error sending email"},
		{name: "verification", path: "/account/verification-email", body: `{"email":"a@b.co","firstName":"Al","url":"https://meetingbaas.com/verify?t=1"}`, headers: key, code: http.StatusOK, message: "Verification email sent"},
		{name: "reset needs url", path: "/account/password-reset-email", body: `{"email":"a@b.co"}`, headers: key, code: http.StatusBadRequest, message: "Invalid request body"},
		{name: "bearer works too", path: "/account/password-reset-email", body: `{"email":"a@b.co","url":"https://meetingbaas.com/reset"}`, headers: []string{"Authorization", "Bearer secret"}, code: http.StatusOK, message: "Reset password email sent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := newApp(handlers.NewAccount(&fakeAccount{err: tt.err}, middlewares.APIKey("secret")))
			res := do(t, app, http.MethodPost, tt.path, tt.body, tt.headers...)
			require.Equal(t, tt.code, res.Code)
			require.Equal(t, tt.message, res.Body["message"])
			if tt.code == http.StatusTooManyRequests {
				require.Equal(t, "2025-05-02T09:00:00Z", res.Body["nextAvailableAt"])
			}
		})
	}
}

func TestAccount_DefaultPreferences(t *testing.T) {
	t.Parallel()

	key := []string{"x-api-key", "secret"}

	svc := &fakeAccount{created: true}
	app := newApp(handlers.NewAccount(svc, middlewares.APIKey("secret")))
	res := do(t, app, http.MethodPost, "/account/default-preferences", `{"account_id":42}`, key...)
	require.Equal(t, http.StatusCreated, res.Code)
	require.Equal(t, []int64{42}, svc.seeded)

	svc.created = false
	res = do(t, app, http.MethodPost, "/account/default-preferences", `{"account_id":42}`, key...)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "Preferences already exist", res.Body["message"])
}
