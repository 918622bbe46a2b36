package cooldown

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/store"
)

// triggered_by values that cooldowns filter on.
const (
	TriggeredByUser   = "user"
	TriggeredBySystem = "system"
)

// PGLogReader reads email_logs with pgx.
type PGLogReader struct {
	db store.DBTX
}

func NewPGLogReader(db store.DBTX) *PGLogReader {
	return &PGLogReader{db: db}
}

func (r *PGLogReader) SuccessfulSince(ctx context.Context, accountID int64, id catalog.EmailID, triggeredBy string, since time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT sent_at FROM email_logs
		  WHERE account_id = $1 AND email_type = $2 AND triggered_by = $3
		    AND success = TRUE AND sent_at >= $4
		  ORDER BY sent_at ASC`,
		accountID, string(id), triggeredBy, since.UTC())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[time.Time])
}

func (r *PGLogReader) LatestSuccessfulSince(ctx context.Context, accountID int64, id catalog.EmailID, triggeredBy string, since time.Time) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRow(ctx,
		`SELECT sent_at FROM email_logs
		  WHERE account_id = $1 AND email_type = $2 AND triggered_by = $3
		    AND success = TRUE AND sent_at >= $4
		  ORDER BY sent_at DESC LIMIT 1`,
		accountID, string(id), triggeredBy, since.UTC(),
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ LogReader = (*PGLogReader)(nil)
