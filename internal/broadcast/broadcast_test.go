package broadcast_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/broadcast"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/content"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/pkg/logger"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

type fakeContents map[int64]content.Content

func (f fakeContents) ByIDs(_ context.Context, ids []int64) ([]content.Content, error) {
	found := make([]content.Content, 0, len(ids))
	for _, c := range f {
		found = append(found, c)
	}
	return content.InOrder(found, ids)
}

type fakeAccounts map[string]int64

func (f fakeAccounts) IDsByEmail(_ context.Context, emails []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, e := range emails {
		if id, ok := f[e]; ok {
			out[e] = id
		}
	}
	return out, nil
}

type failingAccounts struct{}

func (failingAccounts) IDsByEmail(context.Context, []string) (map[string]int64, error) {
	return nil, errors.New("accounts: connection reset")
}

type fakeSender struct {
	sent []*mailer.Email
	err  error
	// ids, when set, replaces the generated provider ids.
	ids []string
}

func (f *fakeSender) SendBatch(_ context.Context, emails []*mailer.Email) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, emails...)
	if f.ids != nil {
		return f.ids, nil
	}
	ids := make([]string, len(emails))
	for i := range emails {
		ids[i] = fmt.Sprintf("re_%d", i)
	}
	return ids, nil
}

type fakeRecorder struct {
	logged []sendlog.Delivery
}

func (f *fakeRecorder) LogBatch(_ context.Context, ds []sendlog.Delivery) {
	f.logged = append(f.logged, ds...)
}

func newService(sender *fakeSender, rec *fakeRecorder) *broadcast.Service {
	return newServiceWith(fakeAccounts{"ada@example.com": 7}, sender, rec)
}

func newServiceWith(accounts broadcast.AccountResolver, sender *fakeSender, rec *fakeRecorder) *broadcast.Service {
	return broadcast.NewService(broadcast.Deps{
		Contents: fakeContents{
			1: {ID: 1, Content: "<p>first</p>", ContentText: "first"},
			2: {ID: 2, Content: "<p>second</p>", ContentText: "second"},
		},
		Accounts:     accounts,
		Sender:       sender,
		Recorder:     rec,
		Renderer:     templates.NewRenderer(templates.Files()),
		Config:       catalog.NewBroadcastConfig(catalog.DefaultBroadcastContent()),
		Links:        links.New(links.Config{}),
		SupportEmail: "support@meetingbaas.com",
		Logger:       logger.Discard(),
	})
}

func TestService_Send(t *testing.T) {
	t.Parallel()

	t.Run("sends one batch and logs known accounts", func(t *testing.T) {
		t.Parallel()

		sender, rec := &fakeSender{}, &fakeRecorder{}
		res, err := newService(sender, rec).Send(context.Background(), broadcast.Request{
			EmailID:     catalog.ProductUpdates,
			Frequency:   catalog.Weekly,
			ContentIDs:  []int64{2, 1},
			TriggeredBy: "admin@meetingbaas.com",
			Recipients: []broadcast.Recipient{
				{Email: "ada@example.com", FirstName: "Ada"},
				{Email: "ghost@example.com"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Product Updates", res.Subject)
		assert.Equal(t, 2, res.Sent)
		assert.Equal(t, 1, res.Logged)

		require.Len(t, sender.sent, 2)
		assert.Contains(t, sender.sent[0].HTML, "Hi Ada")
		assert.Contains(t, sender.sent[1].HTML, "Hi there")
		assert.Contains(t, sender.sent[0].HTML, "<p>second</p><br><br><p>first</p>")
		assert.Equal(t, "second\n\nfirst", sender.sent[0].Text)

		require.Len(t, rec.logged, 1)
		d := rec.logged[0]
		assert.Equal(t, int64(7), d.AccountID)
		assert.Equal(t, "re_0", d.ProviderID)
		assert.Equal(t, "admin@meetingbaas.com", d.TriggeredBy)
		assert.Contains(t, d.Metadata[sendlog.MetaTemplate], templates.FirstNamePlaceholder)
	})

	t.Run("subject override", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		res, err := newService(sender, &fakeRecorder{}).Send(context.Background(), broadcast.Request{
			EmailID:    catalog.Maintenance,
			Subject:    "  Planned downtime  ",
			ContentIDs: []int64{1},
			Recipients: []broadcast.Recipient{{Email: "ada@example.com"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Planned downtime", res.Subject)
		assert.Equal(t, "Planned downtime", sender.sent[0].Subject)
	})

	t.Run("validation happens before any send", func(t *testing.T) {
		t.Parallel()

		many := make([]broadcast.Recipient, broadcast.BatchSize+1)
		for i := range many {
			many[i] = broadcast.Recipient{Email: fmt.Sprintf("u%d@example.com", i)}
		}
		one := []broadcast.Recipient{{Email: "ada@example.com"}}

		tests := []struct {
			name string
			req  broadcast.Request
			want error
		}{
			{"not a broadcast type", broadcast.Request{EmailID: catalog.UsageReports, ContentIDs: []int64{1}, Recipients: one}, catalog.ErrNotBroadcast},
			{"missing content", broadcast.Request{EmailID: catalog.CompanyNews, ContentIDs: []int64{1, 99}, Recipients: one}, broadcast.ErrContentNotFound},
			{"no content ids", broadcast.Request{EmailID: catalog.CompanyNews, Recipients: one}, broadcast.ErrNoContent},
			{"no recipients", broadcast.Request{EmailID: catalog.CompanyNews, ContentIDs: []int64{1}}, broadcast.ErrNoRecipients},
			{"too many recipients", broadcast.Request{EmailID: catalog.CompanyNews, ContentIDs: []int64{1}, Recipients: many}, broadcast.ErrBatchTooLarge},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				sender := &fakeSender{}
				_, err := newService(sender, &fakeRecorder{}).Send(context.Background(), tt.req)
				require.ErrorIs(t, err, tt.want)
				assert.Empty(t, sender.sent)
			})
		}
	})

	t.Run("provider failure is returned and logged as failed", func(t *testing.T) {
		t.Parallel()

		rec := &fakeRecorder{}
		_, err := newService(&fakeSender{err: errors.New("rate limited")}, rec).Send(context.Background(), broadcast.Request{
			EmailID:    catalog.APIChanges,
			ContentIDs: []int64{1},
			Recipients: []broadcast.Recipient{{Email: "ada@example.com"}},
		})
		require.Error(t, err)
		require.Len(t, rec.logged, 1)
		assert.False(t, rec.logged[0].Success)
		assert.Equal(t, "rate limited", rec.logged[0].ErrorMessage)
		assert.Empty(t, rec.logged[0].ProviderID)
	})

	t.Run("mismatched provider ids still log the sends", func(t *testing.T) {
		t.Parallel()

		rec := &fakeRecorder{}
		res, err := newService(&fakeSender{ids: []string{"re_only"}}, rec).Send(context.Background(), broadcast.Request{
			EmailID:    catalog.APIChanges,
			ContentIDs: []int64{1},
			Recipients: []broadcast.Recipient{{Email: "ada@example.com"}, {Email: "ghost@example.com"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Logged)
		require.Len(t, rec.logged, 1)
		assert.True(t, rec.logged[0].Success)
		assert.Equal(t, int64(7), rec.logged[0].AccountID)
		assert.Empty(t, rec.logged[0].ProviderID)
	})

	t.Run("account lookup failure sends nothing", func(t *testing.T) {
		t.Parallel()

		sender, rec := &fakeSender{}, &fakeRecorder{}
		_, err := newServiceWith(failingAccounts{}, sender, rec).Send(context.Background(), broadcast.Request{
			EmailID:    catalog.APIChanges,
			ContentIDs: []int64{1},
			Recipients: []broadcast.Recipient{{Email: "ada@example.com"}},
		})
		require.Error(t, err)
		assert.Empty(t, sender.sent)
		assert.Empty(t, rec.logged)
	})
}
