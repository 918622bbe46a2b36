package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/internal/session"
	"github.com/Meeting-BaaS/emails/middlewares"
)

const (
	userCookie  = "session=user"
	adminCookie = "session=admin"
)

var (
	testUser  = session.User{ID: 7, Email: "jane@example.com", FirstName: "Jane"}
	testAdmin = session.User{ID: 1, Email: "ops@meetingbaas.com", FirstName: "Ops"}
)

type sessions struct{}

func (sessions) Lookup(_ context.Context, cookie string) (session.User, error) {
	switch cookie {
	case userCookie:
		return testUser, nil
	case adminCookie:
		return testAdmin, nil
	default:
		return session.User{}, session.ErrNoSession
	}
}

var (
	sessionGuard = middlewares.Session(sessions{})
	adminGuard   = middlewares.Admin("meetingbaas.com")
)

func newApp(hs ...internal.Handler) *internal.App {
	return internal.New(
		internal.WithErrorHandler(handlers.ErrorHandler(false)),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithHandlers(hs...),
	)
}

type response struct {
	Code int
	Body map[string]any
}

func do(t *testing.T, app http.Handler, method, target, body string, headers ...string) response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	res := response{Code: w.Code}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	return res
}

func cookie(v string) []string { return []string{"Cookie", v} }
