package usage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Meeting-BaaS/emails/internal/store"
)

const aggregateColumns = `
	COUNT(b.id),
	COALESCE(AVG(EXTRACT(EPOCH FROM (b.ended_at - b.created_at))) / 3600, 0)::float8,
	COALESCE(SUM(EXTRACT(EPOCH FROM (b.ended_at - b.created_at))) / 3600, 0)::float8,
	COALESCE(SUM(c.recording_tokens), 0)::float8,
	COALESCE(SUM(c.transcription_tokens + c.transcription_byok_tokens
	             + c.streaming_output_tokens + c.streaming_input_tokens), 0)::float8,
	COUNT(*) FILTER (WHERE b.errors IS NOT NULL),
	COUNT(b.id),
	COALESCE(array_agg(COALESCE(b.meeting_url, '') ORDER BY b.created_at) FILTER (WHERE b.id IS NOT NULL), '{}'),
	COALESCE(array_agg(COALESCE(b.errors, '') ORDER BY b.created_at) FILTER (WHERE b.id IS NOT NULL), '{}')`

var perAccountQuery = `
SELECT b.account_id,` + aggregateColumns + `
  FROM bots b
  LEFT JOIN bot_consumption c ON c.bot_id = b.id
 WHERE b.account_id = ANY($3) AND` + jobFilter + `
 GROUP BY b.account_id`

var allAccountsQuery = `
SELECT 0::int8,` + aggregateColumns + `
  FROM bots b
  LEFT JOIN bot_consumption c ON c.bot_id = b.id
 WHERE` + jobFilter

// Aggregator reads the bots and bot_consumption tables.
type Aggregator struct {
	db  store.DBTX
	log *slog.Logger
}

func NewAggregator(db store.DBTX, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{db: db, log: log}
}

// Stats returns the stats of each listed account that ran at least one
// qualifying bot in w.
func (a *Aggregator) Stats(ctx context.Context, w Window, accountIDs []int64) (map[int64]Stats, error) {
	out := make(map[int64]Stats, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := a.db.Query(ctx, perAccountQuery, w.Start, w.End, accountIDs)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	raw, err := pgx.CollectRows(rows, scanAccountJobs)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	a.log.InfoContext(ctx, "aggregated usage", slog.Int("accounts_with_bots", len(raw)), slog.Int("accounts", len(accountIDs)))
	for _, r := range raw {
		out[r.AccountID] = Compute(r, a.warnUnknown(ctx))
	}
	return out, nil
}

// AllAccounts returns one aggregate across every account, keyed under
// AllAccountsID. ok is false when no bot qualified.
func (a *Aggregator) AllAccounts(ctx context.Context, w Window) (stats Stats, ok bool, err error) {
	rows, err := a.db.Query(ctx, allAccountsQuery, w.Start, w.End)
	if err != nil {
		return Stats{}, false, errors.Join(ErrQuery, err)
	}
	raw, err := pgx.CollectExactlyOneRow(rows, scanAccountJobs)
	if err != nil {
		return Stats{}, false, errors.Join(ErrQuery, err)
	}
	if raw.TotalCount == 0 {
		return Stats{}, false, nil
	}
	return Compute(raw, a.warnUnknown(ctx)), true, nil
}

func (a *Aggregator) warnUnknown(ctx context.Context) func(string) {
	return func(url string) {
		a.log.WarnContext(ctx, "unknown platform for meeting url, skipping", slog.String("meeting_url", url))
	}
}

func scanAccountJobs(row pgx.CollectableRow) (AccountJobs, error) {
	var (
		a                      AccountJobs
		totalBots, errs, total int64
		urls, jobErrors        []string
	)
	if err := row.Scan(
		&a.AccountID, &totalBots, &a.AvgLengthHours, &a.TotalHours,
		&a.RecordingTokens, &a.TranscriptionTokens, &errs, &total, &urls, &jobErrors,
	); err != nil {
		return a, err
	}
	a.TotalBots, a.ErrorCount, a.TotalCount = int(totalBots), int(errs), int(total)
	a.Jobs = make([]Job, len(urls))
	for i, u := range urls {
		a.Jobs[i].MeetingURL = u
		if i < len(jobErrors) {
			a.Jobs[i].Error = jobErrors[i]
		}
	}
	return a, nil
}
