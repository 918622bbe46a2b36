package sendlog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/store"
)

// HardLimit caps the page size of Query.
const HardLimit = 100

const recordColumns = `id, account_id, email_type, COALESCE(subject, ''), COALESCE(triggered_by, ''),
	sent_at, COALESCE(message_ids, ''), COALESCE(metadata->>'` + MetaTemplate + `', '')`

// Reader queries email_logs.
type Reader struct {
	db store.DBTX
}

func NewReader(db store.DBTX) *Reader {
	return &Reader{db: db}
}

// LatestByType returns the most recent successful send of id. Broadcast
// emails are shared by every account, so their latest send is looked up
// across accounts; other types only match accountID.
func (r *Reader) LatestByType(ctx context.Context, accountID int64, id catalog.EmailID) (Record, error) {
	if catalog.IsBroadcast(id) {
		return r.one(ctx,
			`SELECT `+recordColumns+` FROM email_logs
			  WHERE email_type = $1 AND success = TRUE
			  ORDER BY sent_at DESC LIMIT 1`, string(id))
	}
	return r.one(ctx,
		`SELECT `+recordColumns+` FROM email_logs
		  WHERE email_type = $1 AND success = TRUE AND account_id = $2
		  ORDER BY sent_at DESC LIMIT 1`, string(id), accountID)
}

// LatestErrorReport returns the newest delivered error-report row of a bot.
// Failed sends are skipped so a thread only references delivered ids.
func (r *Reader) LatestErrorReport(ctx context.Context, botUUID string) (Record, error) {
	return r.one(ctx, latestErrorReportSQL, string(catalog.ErrorReport), botUUID)
}

const latestErrorReportSQL = `SELECT ` + recordColumns + ` FROM email_logs
  WHERE email_type = $1 AND success = TRUE AND metadata->>'` + MetaBotUUID + `' = $2
  ORDER BY sent_at DESC LIMIT 1`

func (r *Reader) one(ctx context.Context, sql string, args ...any) (Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return Record{}, errors.Join(ErrQuery, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrQuery, err)
	}
	return rec, nil
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var (
		rec Record
		typ string
		ids string
	)
	err := row.Scan(&rec.ID, &rec.AccountID, &typ, &rec.Subject, &rec.TriggeredBy, &rec.SentAt, &ids, &rec.Template)
	rec.EmailType = catalog.EmailID(typ)
	rec.MessageIDs = splitMessageIDs(ids)
	return rec, err
}

// Filter selects rows for the admin log view.
type Filter struct {
	Limit        int
	Offset       int
	EmailID      catalog.EmailID
	AccountEmail string
	Start        *time.Time
	End          *time.Time
}

// PageSize is Limit clamped to [1, HardLimit].
func (f Filter) PageSize() int {
	return min(max(f.Limit, 1), HardLimit)
}

// LogView is a row of the admin log view.
type LogView struct {
	ID            int64           `json:"id"`
	EmailType     catalog.EmailID `json:"emailType"`
	SentAt        time.Time       `json:"sentAt"`
	Subject       string          `json:"subject"`
	TriggeredBy   string          `json:"triggeredBy"`
	Email         string          `json:"email"`
	FullName      string          `json:"fullName"`
	WebhookEvents json.RawMessage `json:"webhookEvents"`
}

// Page is one page of LogView rows.
type Page struct {
	Data    []LogView `json:"data"`
	HasMore bool      `json:"hasMore"`
}

// Query returns rows matching f, newest first. One extra row is read to
// compute HasMore.
func (r *Reader) Query(ctx context.Context, f Filter) (Page, error) {
	sql, args := buildQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, errors.Join(ErrQuery, err)
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (LogView, error) {
		var (
			v      LogView
			typ    string
			events []byte
		)
		err := row.Scan(&v.ID, &typ, &v.SentAt, &v.Subject, &v.TriggeredBy, &v.Email, &v.FullName, &events)
		v.EmailType = catalog.EmailID(typ)
		if len(events) > 0 {
			v.WebhookEvents = events
		}
		return v, err
	})
	if err != nil {
		return Page{}, errors.Join(ErrQuery, err)
	}

	size := f.PageSize()
	page := Page{Data: views, HasMore: len(views) > size}
	if page.HasMore {
		page.Data = views[:size]
	}
	if page.Data == nil {
		page.Data = []LogView{}
	}
	return page, nil
}

func buildQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.EmailID != "" {
		where = append(where, "l.email_type = "+arg(string(f.EmailID)))
	}
	if f.AccountEmail != "" {
		where = append(where, "a.email = "+arg(f.AccountEmail))
	}
	if f.Start != nil {
		where = append(where, "l.sent_at >= "+arg(f.Start.UTC()))
	}
	if f.End != nil {
		where = append(where, "l.sent_at <= "+arg(f.End.UTC()))
	}

	var b strings.Builder
	b.WriteString(`SELECT l.id, l.email_type, l.sent_at, COALESCE(l.subject, ''), COALESCE(l.triggered_by, ''),
	a.email, TRIM(COALESCE(a.firstname, '') || ' ' || COALESCE(a.lastname, '')),
	l.metadata->'` + MetaWebhookEvents + `'
FROM email_logs l
JOIN accounts a ON a.id = l.account_id`)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY l.sent_at DESC")
	b.WriteString("\nLIMIT " + arg(f.PageSize()+1))
	b.WriteString(" OFFSET " + arg(max(f.Offset, 0)))
	return b.String(), args
}
