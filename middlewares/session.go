package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/session"
)

type userKey struct{}

// SessionResolver finds the user of a cookie header.
type SessionResolver interface {
	Lookup(ctx context.Context, cookie string) (session.User, error)
}

// Session stores the signed-in user in the context. A request without a
// session is rejected with 401; a failing auth service with 500.
func Session(r SessionResolver) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			u, err := r.Lookup(c, c.Header("Cookie"))
			switch {
			case errors.Is(err, session.ErrNoSession):
				c.LogDebug("no session found")
				return internal.ErrUnauthorized("Unauthorized")
			case err != nil:
				return internal.ErrInternal("Internal Server Error", internal.WithError(err))
			}
			c.Set(userKey{}, u)
			return next(c)
		}
	}
}

// GetUser returns the user stored by Session.
func GetUser(c internal.Context) (session.User, bool) {
	u, ok := c.Get(userKey{}).(session.User)
	return u, ok
}

// Admin admits session users whose email is at domain. It must run after
// Session.
func Admin(domain string) internal.Middleware {
	suffix := "@" + strings.ToLower(domain)
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			u, ok := GetUser(c)
			if !ok || domain == "" || !strings.HasSuffix(strings.ToLower(u.Email), suffix) {
				c.LogWarn("unauthorized admin access attempt", "account_id", u.ID)
				return internal.ErrUnauthorized("Unauthorized request")
			}
			return next(c)
		}
	}
}
