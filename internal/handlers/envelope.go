// Package handlers declares the HTTP routes of the email service. Every
// response is a JSON Envelope; handlers translate domain errors into
// *internal.HTTPError and ErrorHandler renders them.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/session"
	"github.com/Meeting-BaaS/emails/middlewares"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message,omitempty"`
	Data            any        `json:"data,omitempty"`
	Errors          any        `json:"errors,omitempty"`
	NextAvailableAt *time.Time `json:"nextAvailableAt,omitempty"`
	Result          any        `json:"result,omitempty"`
}

func ok(c internal.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: true, Message: message})
}

func okData(c internal.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func okResult(c internal.Context, message string, result any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Result: result})
}

func invalid(message string, verrs internal.ValidationErrors) error {
	return internal.ErrBadRequest(message, internal.WithErrors(verrs))
}

// ErrorHandler renders errors as an Envelope. Errors that are not
// *internal.HTTPError become a 500 whose message is the error text only when
// expose is set.
func ErrorHandler(expose bool) internal.ErrorHandler {
	return func(c internal.Context, err error) error {
		he := internal.AsHTTPError(err)
		if he == nil {
			he = internal.ErrInternal("Internal Server Error", internal.WithError(err))
			if pe, isPanic := middlewares.AsPanicError(err); isPanic {
				he.Message = "Something went wrong"
				he.Err = pe
			}
		}

		attrs := []any{slog.Int("status", he.Code), slog.String("path", c.Request().URL.Path)}
		if he.Err != nil {
			attrs = append(attrs, slog.String("error", he.Err.Error()))
		}
		if he.Code >= http.StatusInternalServerError {
			c.LogError(he.Message, attrs...)
		} else {
			c.LogDebug(he.Message, attrs...)
		}

		message := he.Message
		if expose && he.Code >= http.StatusInternalServerError && he.Err != nil {
			message = he.Err.Error()
		}
		return c.JSON(he.Code, Envelope{
			Message:         message,
			Errors:          he.Errors,
			NextAvailableAt: he.NextAvailableAt,
		})
	}
}

// NotFound answers unknown routes.
func NotFound(c internal.Context) error {
	return c.JSON(http.StatusNotFound, struct {
		Envelope
		Path string `json:"path"`
	}{
		Envelope: Envelope{Message: "The requested resource was not found"},
		Path:     c.Request().URL.Path,
	})
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(c internal.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, Envelope{Message: "Method not allowed"})
}

// currentUser returns the session user. Session middleware guards every
// route that calls it.
func currentUser(c internal.Context) (session.User, error) {
	u, found := middlewares.GetUser(c)
	if !found {
		return session.User{}, internal.ErrUnauthorized("Unauthorized")
	}
	return u, nil
}
