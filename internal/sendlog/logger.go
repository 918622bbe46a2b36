package sendlog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Meeting-BaaS/emails/internal/store"
)

// sent_at is a TIMESTAMP holding UTC wall time whatever the session TimeZone,
// since cooldown windows bind UTC times against it.
const insertLog = `
INSERT INTO email_logs (account_id, email_type, subject, triggered_by, message_ids, metadata, success, error_message, sent_at)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), NOW() AT TIME ZONE 'UTC')`

// Logger writes email_logs rows. Writes are best effort: failures are logged
// and never returned.
type Logger struct {
	db  store.DBTX
	log *slog.Logger
}

func NewLogger(db store.DBTX, log *slog.Logger) *Logger {
	return &Logger{db: db, log: log}
}

// Log writes a single entry.
func (l *Logger) Log(ctx context.Context, e Entry) {
	if err := l.write(ctx, []Delivery{{Entry: e}}); err != nil {
		l.log.ErrorContext(ctx, "failed to log email send",
			slog.Int64("account_id", e.AccountID),
			slog.String("email_type", string(e.EmailType)),
			slog.String("error", err.Error()),
		)
	}
}

// LogBatch writes deliveries in one round trip, storing each provider id
// under metadata.resend_id.
func (l *Logger) LogBatch(ctx context.Context, ds []Delivery) {
	if len(ds) == 0 {
		return
	}
	if err := l.write(ctx, ds); err != nil {
		l.log.ErrorContext(ctx, "failed to log batch email send",
			slog.Int("count", len(ds)),
			slog.String("error", err.Error()),
		)
		return
	}
	l.log.DebugContext(ctx, "logged email sends", slog.Int("count", len(ds)))
}

func (l *Logger) write(ctx context.Context, ds []Delivery) error {
	batch := &pgx.Batch{}
	for _, d := range ds {
		meta, err := marshalMetadata(d.metadata())
		if err != nil {
			return errors.Join(ErrWrite, err)
		}
		triggeredBy := d.TriggeredBy
		if triggeredBy == "" {
			triggeredBy = "system"
		}
		batch.Queue(insertLog,
			d.AccountID, string(d.EmailType), d.Subject, triggeredBy,
			strings.Join(d.MessageIDs, ","), meta, d.Success, d.ErrorMessage,
		)
	}
	if err := l.db.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Join(ErrWrite, err)
	}
	return nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// AppendWebhookEvent appends ev to metadata.webhook_events of the row sent
// with providerID. It reports whether a row matched.
func (l *Logger) AppendWebhookEvent(ctx context.Context, providerID string, ev Event) (bool, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return false, errors.Join(ErrWrite, err)
	}
	tag, err := l.db.Exec(ctx,
		`UPDATE email_logs
		    SET metadata = jsonb_set(
		        COALESCE(metadata, '{}'::jsonb),
		        '{`+MetaWebhookEvents+`}',
		        COALESCE(metadata->'`+MetaWebhookEvents+`', '[]'::jsonb) || jsonb_build_array($2::jsonb),
		        true)
		  WHERE metadata->>'`+MetaResendID+`' = $1`,
		providerID, payload)
	if err != nil {
		return false, errors.Join(ErrWrite, err)
	}
	return tag.RowsAffected() > 0, nil
}
