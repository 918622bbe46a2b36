package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/account"
)

// AccountService sends the emails the backend asks for.
type AccountService interface {
	InsufficientTokens(ctx context.Context, req account.InsufficientTokensRequest) (account.Sent, error)
	PaymentActivation(ctx context.Context, req account.PaymentActivationRequest) (account.Sent, error)
	VerificationLink(ctx context.Context, req account.LinkRequest) (account.Sent, error)
	ResetPassword(ctx context.Context, req account.LinkRequest) (account.Sent, error)
	SeedDefaultPreferences(ctx context.Context, accountID int64) (bool, error)
}

// Account serves /account, called by the backend with the API key.
type Account struct {
	svc   AccountService
	guard internal.Middleware
}

func NewAccount(svc AccountService, guard internal.Middleware) *Account {
	return &Account{svc: svc, guard: guard}
}

func (h *Account) Routes(r internal.Router) {
	r.Route("/account", func(r internal.Router) {
		r.Use(h.guard)
		r.POST("/insufficient-tokens", h.insufficientTokens)
		r.POST("/payment-activation", h.paymentActivation)
		r.POST("/verification-email", h.verificationEmail)
		r.POST("/password-reset-email", h.passwordResetEmail)
		r.POST("/default-preferences", h.defaultPreferences)
	})
}

func (h *Account) insufficientTokens(c internal.Context) error {
	var req account.InsufficientTokensRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	sent, err := h.svc.InsufficientTokens(c, req)
	if err != nil {
		return systemEmailError(c, err, "Insufficient tokens email cooldown")
	}
	return okResult(c, "Insufficient tokens email sent", sent)
}

func (h *Account) paymentActivation(c internal.Context) error {
	var req account.PaymentActivationRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	sent, err := h.svc.PaymentActivation(c, req)
	if err != nil {
		return systemEmailError(c, err, "Payment activation email cooldown")
	}
	return okResult(c, "Payment activation email sent", sent)
}

func (h *Account) verificationEmail(c internal.Context) error {
	return h.link(c, h.svc.VerificationLink, "Verification email sent")
}

func (h *Account) passwordResetEmail(c internal.Context) error {
	return h.link(c, h.svc.ResetPassword, "Reset password email sent")
}

func (h *Account) link(c internal.Context, send func(context.Context, account.LinkRequest) (account.Sent, error), message string) error {
	var req account.LinkRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	sent, err := send(c, req)
	if err != nil {
		return internal.ErrInternal("Error sending email", internal.WithError(err))
	}
	return okResult(c, message, sent)
}

type seedRequest struct {
	AccountID int64 `json:"account_id" validate:"gt=0"`
}

func (h *Account) defaultPreferences(c internal.Context) error {
	var req seedRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	return seedPreferences(c, h.svc, req.AccountID)
}

type preferenceSeeder interface {
	SeedDefaultPreferences(ctx context.Context, accountID int64) (bool, error)
}

func seedPreferences(c internal.Context, s preferenceSeeder, accountID int64) error {
	created, err := s.SeedDefaultPreferences(c, accountID)
	if err != nil {
		return internal.ErrInternal("Error saving preferences", internal.WithError(err))
	}
	if !created {
		return ok(c, http.StatusOK, "Preferences already exist")
	}
	return ok(c, http.StatusCreated, "Preferences saved successfully")
}

// systemEmailError maps the gates of system emails. An unsubscribed account
// is not a failure for the backend.
func systemEmailError(c internal.Context, err error, cooldownMessage string) error {
	var ce *account.CooldownError
	switch {
	case errors.Is(err, account.ErrUnsubscribed):
		return ok(c, http.StatusOK, "Account is not subscribed to activity-updates")
	case errors.As(err, &ce):
		return internal.ErrTooManyRequests(cooldownMessage, internal.WithNextAvailableAt(ce.NextAvailableAt))
	default:
		return internal.ErrInternal("Error sending email", internal.WithError(err))
	}
}
