package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/broadcast"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/content"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/internal/preferences"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
)

type fakeSubscribers []preferences.Subscriber

func (f fakeSubscribers) Subscribers(_ context.Context, id catalog.EmailID, freq catalog.Frequency, _ string) ([]preferences.Subscriber, error) {
	var out []preferences.Subscriber
	for _, s := range f {
		if s.EmailType == id && s.Frequency == freq {
			out = append(out, s)
		}
	}
	return out, nil
}

type memContents struct {
	items  map[int64]content.Content
	nextID int64
}

func (m *memContents) Create(_ context.Context, accountID int64, d content.Draft) (content.Content, error) {
	html, text, err := d.Prepare()
	if err != nil {
		return content.Content{}, err
	}
	m.nextID++
	c := content.Content{ID: m.nextID, AccountID: accountID, EmailType: d.EmailType, Content: html, ContentText: text}
	m.items[c.ID] = c
	return c, nil
}

func (m *memContents) Update(_ context.Context, id int64, d content.Draft) (content.Content, error) {
	c, found := m.items[id]
	if !found {
		return content.Content{}, content.ErrNotFound
	}
	c.Content, c.ContentText = d.Content, d.ContentText
	m.items[id] = c
	return c, nil
}

func (m *memContents) Delete(_ context.Context, id int64) error {
	if _, found := m.items[id]; !found {
		return content.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memContents) List(_ context.Context, id catalog.EmailID) ([]content.Content, error) {
	var out []content.Content
	for _, c := range m.items {
		if id == "" || c.EmailType == id {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeBroadcaster struct {
	err error
	got broadcast.Request
}

func (f *fakeBroadcaster) Send(_ context.Context, req broadcast.Request) (broadcast.Result, error) {
	f.got = req
	if f.err != nil {
		return broadcast.Result{}, f.err
	}
	return broadcast.Result{Subject: "Product Updates", Sent: len(req.Recipients), Logged: len(req.Recipients)}, nil
}

type fakeLogs struct {
	filter sendlog.Filter
}

func (f *fakeLogs) Query(_ context.Context, filter sendlog.Filter) (sendlog.Page, error) {
	f.filter = filter
	return sendlog.Page{HasMore: true, Data: []sendlog.LogView{{ID: 1, EmailType: catalog.Maintenance}}}, nil
}

type adminFixture struct {
	contents   *memContents
	broadcasts *fakeBroadcaster
	logs       *fakeLogs
	app        http.Handler
}

func newAdmin(t *testing.T) *adminFixture {
	t.Helper()

	f := &adminFixture{
		contents:   &memContents{items: map[int64]content.Content{}},
		broadcasts: &fakeBroadcaster{},
		logs:       &fakeLogs{},
	}
	f.app = newApp(handlers.NewAdmin(handlers.AdminDeps{
		Subscribers: fakeSubscribers{
			{AccountID: 7, EmailType: catalog.ProductUpdates, Frequency: catalog.Weekly, Email: "jane@example.com"},
			{AccountID: 8, EmailType: catalog.ProductUpdates, Frequency: catalog.Daily, Email: "joe@example.com"},
		},
		Contents:   f.contents,
		Broadcasts: f.broadcasts,
		Logs:       f.logs,
		Guards:     []internal.Middleware{sessionGuard, adminGuard},
	}))
	return f
}

func TestAdmin_Guard(t *testing.T) {
	t.Parallel()

	f := newAdmin(t)
	res := do(t, f.app, http.MethodGet, "/admin/broadcast-types", "", cookie(userCookie)...)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, "Unauthorized request", res.Body["message"])

	res = do(t, f.app, http.MethodGet, "/admin/broadcast-types", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.Body["data"], len(catalog.BroadcastTypes()))
}

func TestAdmin_Recipients(t *testing.T) {
	t.Parallel()

	f := newAdmin(t)
	res := do(t, f.app, http.MethodGet, "/admin/recipients?emailId=product-updates&frequency=Weekly", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)
	data := res.Body["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, "jane@example.com", data[0].(map[string]any)["email"])

	res = do(t, f.app, http.MethodGet, "/admin/recipients?emailId=nope&frequency=Weekly", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAdmin_Content(t *testing.T) {
	t.Parallel()

	f := newAdmin(t)

	res := do(t, f.app, http.MethodPost, "/admin/content",
		`{"emailType":"product-updates","content":"<p>Hello</p><script>alert(1)</script>","contentText":"Hello"}`, cookie(adminCookie)...)
	require.Equal(t, http.StatusCreated, res.Code)
	saved := res.Body["data"].(map[string]any)
	require.NotContains(t, saved["content"], "script")
	require.Equal(t, float64(testAdmin.ID), saved["accountId"])

	res = do(t, f.app, http.MethodPost, "/admin/content", `{"emailType":"product-updates","content":"<script></script>"}`, cookie(adminCookie)...)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, f.app, http.MethodGet, "/admin/content?emailType=product-updates", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.Body["data"], 1)

	res = do(t, f.app, http.MethodPut, "/admin/content/1", `{"emailType":"product-updates","content":"<p>Bye</p>"}`, cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)

	res = do(t, f.app, http.MethodPut, "/admin/content/99", `{"emailType":"product-updates","content":"<p>Bye</p>"}`, cookie(adminCookie)...)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, f.app, http.MethodDelete, "/admin/content/abc", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, f.app, http.MethodDelete, "/admin/content/1", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)
	require.Empty(t, f.contents.items)
}

func TestAdmin_Send(t *testing.T) {
	t.Parallel()

	body := `{"emailId":"product-updates","frequency":"Weekly","subject":"  Launch week  ","contentIds":[3,1],"recipients":[{"email":"jane@example.com","firstname":"Jane"}]}`

	t.Run("sends as the admin", func(t *testing.T) {
		t.Parallel()

		f := newAdmin(t)
		res := do(t, f.app, http.MethodPost, "/admin/send", body, cookie(adminCookie)...)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, "Product Updates email sent", res.Body["message"])
		require.Equal(t, "Launch week", f.broadcasts.got.Subject)
		require.Equal(t, []int64{3, 1}, f.broadcasts.got.ContentIDs)
		require.Equal(t, testAdmin.Email, f.broadcasts.got.TriggeredBy)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		t.Parallel()

		f := newAdmin(t)
		res := do(t, f.app, http.MethodPost, "/admin/send",
			`{"emailId":"product-updates","frequency":"Weekly","contentIds":[1],"recipients":[{"email":"nope"}]}`, cookie(adminCookie)...)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})

	for _, err := range []error{broadcast.ErrContentNotFound, broadcast.ErrBatchTooLarge, catalog.ErrNotBroadcast} {
		t.Run(err.Error(), func(t *testing.T) {
			t.Parallel()

			f := newAdmin(t)
			f.broadcasts.err = fmt.Errorf("wrapped: %w", err)
			res := do(t, f.app, http.MethodPost, "/admin/send", body, cookie(adminCookie)...)
			require.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestAdmin_Logs(t *testing.T) {
	t.Parallel()

	f := newAdmin(t)
	res := do(t, f.app, http.MethodGet, "/admin/logs?limit=10&offset=20&emailId=maintenance&startDate=2025-01-01", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, true, res.Body["hasMore"])
	require.Len(t, res.Body["data"], 1)
	require.Equal(t, 10, f.logs.filter.Limit)
	require.Equal(t, 20, f.logs.filter.Offset)
	require.Equal(t, catalog.Maintenance, f.logs.filter.EmailID)
	require.NotNil(t, f.logs.filter.Start)

	res = do(t, f.app, http.MethodGet, "/admin/logs?startDate=2025-02-01&endDate=2025-01-01", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, f.app, http.MethodGet, "/admin/logs?limit=0", "", cookie(adminCookie)...)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
