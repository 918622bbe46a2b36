package handlers

import (
	"context"
	"errors"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/account"
	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// EmailResender replays a stored email to the signed-in user.
type EmailResender interface {
	Resend(ctx context.Context, u account.User, req account.ResendRequest) (account.Resent, error)
}

// User serves the session routes outside /preferences.
type User struct {
	seeder  preferenceSeeder
	resends EmailResender
	guard   internal.Middleware
}

func NewUser(seeder preferenceSeeder, resends EmailResender, guard internal.Middleware) *User {
	return &User{seeder: seeder, resends: resends, guard: guard}
}

func (h *User) Routes(r internal.Router) {
	r.Group(func(r internal.Router) {
		r.Use(h.guard)
		r.GET("/types", h.types)
		r.POST("/default-preferences", h.defaultPreferences)
		r.POST("/resend", h.resend)
	})
}

func (h *User) types(c internal.Context) error {
	return okData(c, catalog.Types())
}

func (h *User) defaultPreferences(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return seedPreferences(c, h.seeder, u.ID)
}

func (h *User) resend(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req account.ResendRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}

	res, err := h.resends.Resend(c, account.User{AccountID: u.ID, Email: u.Email, FirstName: u.FirstName}, req)
	var ce *account.CooldownError
	switch {
	case err == nil:
		return okResult(c, res.Subject+" email sent", res)
	case errors.As(err, &ce):
		return internal.ErrTooManyRequests("Too many requests", internal.WithNextAvailableAt(ce.NextAvailableAt))
	case errors.Is(err, account.ErrNotResendable):
		return internal.ErrBadRequest("Invalid email type", internal.WithError(err))
	case errors.Is(err, account.ErrNoPreviousSend):
		return internal.ErrUnprocessable("No email found", internal.WithError(err))
	case errors.Is(err, account.ErrNoStoredBody):
		return internal.ErrUnprocessable("No email content found", internal.WithError(err))
	default:
		return internal.ErrInternal("Error resending email", internal.WithError(err))
	}
}
