package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/errorreport"
	"github.com/Meeting-BaaS/emails/internal/handlers"
)

type fakeErrorReports struct {
	err      error
	reporter errorreport.Reporter
}

func (f *fakeErrorReports) Report(_ context.Context, who errorreport.Reporter, req errorreport.ReportRequest) (errorreport.Result, error) {
	f.reporter = who
	return errorreport.Result{ID: "re_7", MessageID: "<error-x-message-0@meetingbaas.com>"}, f.err
}

func (f *fakeErrorReports) Reply(_ context.Context, req errorreport.ReplyRequest) (errorreport.Result, error) {
	return errorreport.Result{ID: "re_8"}, f.err
}

func TestErrorReport(t *testing.T) {
	t.Parallel()

	const bot = "4f1c2b1e-9a7d-4c55-9a1c-0f6f7a1b2c3d"
	reportBody := `{"botUuid":"` + bot + `","chatId":"chat-1"}`
	replyBody := `{"botUuid":"` + bot + `","reply":"Fixed","accountEmail":"jane@example.com"}`

	tests := []struct {
		name   string
		err    error
		path   string
		body   string
		cookie string
		code   int
	}{
		{name: "report", path: "/error-report/new", body: reportBody, cookie: userCookie, code: http.StatusOK},
		{name: "report without session", path: "/error-report/new", body: reportBody, code: http.StatusUnauthorized},
		{name: "report missing chat", path: "/error-report/new", body: `{"botUuid":"` + bot + `"}`, cookie: userCookie, code: http.StatusBadRequest},
		{name: "report invalid uuid", err: errorreport.ErrInvalidBotUUID, path: "/error-report/new", body: reportBody, cookie: userCookie, code: http.StatusBadRequest},
		{name: "reply needs admin", path: "/error-report/reply", body: replyBody, cookie: userCookie, code: http.StatusUnauthorized},
		{name: "reply", path: "/error-report/reply", body: replyBody, cookie: adminCookie, code: http.StatusOK},
		{name: "reply without thread", err: errorreport.ErrThreadNotFound, path: "/error-report/reply", body: replyBody, cookie: adminCookie, code: http.StatusNotFound},
		{name: "reply unknown account", err: errorreport.ErrAccountNotFound, path: "/error-report/reply", body: replyBody, cookie: adminCookie, code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reports := &fakeErrorReports{err: tt.err}
			app := newApp(handlers.NewErrorReport(reports, sessionGuard, adminGuard))
			var headers []string
			if tt.cookie != "" {
				headers = cookie(tt.cookie)
			}
			res := do(t, app, http.MethodPost, tt.path, tt.body, headers...)
			require.Equal(t, tt.code, res.Code)
			if tt.name == "report" {
				require.Equal(t, testUser.ID, reports.reporter.AccountID)
				require.Equal(t, "Error report received and confirmation email sent", res.Body["message"])
			}
		})
	}
}
