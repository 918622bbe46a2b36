// Package preferences stores per-account subscription frequencies and merges
// them with the catalog defaults.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/store"
	"github.com/Meeting-BaaS/emails/pkg/db"
)

// Preference is one stored email_preferences row.
type Preference struct {
	AccountID int64             `json:"accountId"`
	EmailType catalog.EmailID   `json:"emailType"`
	Frequency catalog.Frequency `json:"frequency"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Subscriber is an account subscribed to an email type at some frequency.
type Subscriber struct {
	AccountID int64             `json:"accountId"`
	EmailType catalog.EmailID   `json:"emailType"`
	Frequency catalog.Frequency `json:"frequency"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstname"`
	LastName  string            `json:"lastname"`
}

// Store reads and writes email_preferences.
type Store struct {
	pool *pgxpool.Pool
	db   store.DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// List returns the stored rows of an account.
func (s *Store) List(ctx context.Context, accountID int64) ([]Preference, error) {
	rows, err := s.db.Query(ctx,
		`SELECT account_id, email_type, frequency, updated_at
		   FROM email_preferences WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	prefs, err := pgx.CollectRows(rows, scanPreference)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return prefs, nil
}

// Upsert sets the frequency of a single email type.
func (s *Store) Upsert(ctx context.Context, accountID int64, id catalog.EmailID, f catalog.Frequency) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO email_preferences (account_id, email_type, frequency, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (account_id, email_type)
		 DO UPDATE SET frequency = EXCLUDED.frequency, updated_at = EXCLUDED.updated_at`,
		accountID, string(id), f.Stored())
	if err != nil {
		return errors.Join(ErrWrite, err)
	}
	return nil
}

// UpsertMany sets f for every id in one statement. updated counts rows that
// already existed, created the ones inserted.
func (s *Store) UpsertMany(ctx context.Context, accountID int64, ids []catalog.EmailID, f catalog.Frequency) (updated, created int, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	rows, err := s.db.Query(ctx,
		`INSERT INTO email_preferences (account_id, email_type, frequency, updated_at)
		 SELECT $1, t, $3, NOW() FROM unnest($2::text[]) AS t
		 ON CONFLICT (account_id, email_type)
		 DO UPDATE SET frequency = EXCLUDED.frequency, updated_at = EXCLUDED.updated_at
		 RETURNING (xmax = 0) AS inserted`,
		accountID, toStrings(ids), f.Stored())
	if err != nil {
		return 0, 0, errors.Join(ErrWrite, err)
	}
	inserted, err := pgx.CollectRows(rows, pgx.RowTo[bool])
	if err != nil {
		return 0, 0, errors.Join(ErrWrite, err)
	}
	for _, ins := range inserted {
		if ins {
			created++
		} else {
			updated++
		}
	}
	return updated, created, nil
}

// HasAny reports whether the account has at least one stored preference.
func (s *Store) HasAny(ctx context.Context, accountID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_preferences WHERE account_id = $1)`, accountID,
	).Scan(&ok)
	if err != nil {
		return false, errors.Join(ErrQuery, err)
	}
	return ok, nil
}

// SeedDefaults writes the default frequency of every type when the account
// has no preferences yet. created is false when rows already existed.
func (s *Store) SeedDefaults(ctx context.Context, accountID int64, types []catalog.EmailType) (bool, error) {
	var created bool
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		// Serialises concurrent seeding of the same account.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, accountID); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM email_preferences WHERE account_id = $1)`, accountID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		batch := &pgx.Batch{}
		for _, t := range types {
			batch.Queue(
				`INSERT INTO email_preferences (account_id, email_type, frequency, updated_at)
				 VALUES ($1, $2, $3, NOW()) ON CONFLICT (account_id, email_type) DO NOTHING`,
				accountID, string(t.ID), t.DefaultFrequency.Stored())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, errors.Join(ErrWrite, err)
	}
	return created, nil
}

// IsUnsubscribed is true when the account has no row for id or the row is
// set to never.
func (s *Store) IsUnsubscribed(ctx context.Context, accountID int64, id catalog.EmailID) (bool, error) {
	var freq string
	err := s.db.QueryRow(ctx,
		`SELECT frequency FROM email_preferences WHERE account_id = $1 AND email_type = $2 LIMIT 1`,
		accountID, string(id),
	).Scan(&freq)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, errors.Join(ErrQuery, err)
	}
	f, err := catalog.ParseFrequency(freq)
	if err != nil {
		return true, nil
	}
	return f == catalog.Never, nil
}

// Subscribers lists the accounts subscribed to id at frequency f. A non-empty
// emailSuffix restricts the result to addresses ending with it.
func (s *Store) Subscribers(ctx context.Context, id catalog.EmailID, f catalog.Frequency, emailSuffix string) ([]Subscriber, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.account_id, p.email_type, p.frequency, p.updated_at,
		        a.email, COALESCE(a.firstname, ''), COALESCE(a.lastname, '')
		   FROM email_preferences p
		   JOIN accounts a ON a.id = p.account_id
		  WHERE p.email_type = $1 AND lower(p.frequency) = $2
		    AND ($3 = '' OR a.email LIKE '%' || $3)
		  ORDER BY p.account_id`,
		string(id), f.Stored(), emailSuffix)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Subscriber, error) {
		var (
			sub  Subscriber
			freq string
			typ  string
		)
		if err := row.Scan(&sub.AccountID, &typ, &freq, &sub.UpdatedAt, &sub.Email, &sub.FirstName, &sub.LastName); err != nil {
			return sub, err
		}
		sub.EmailType = catalog.EmailID(typ)
		sub.Frequency = displayFrequency(freq)
		return sub, nil
	})
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return subs, nil
}

func scanPreference(row pgx.CollectableRow) (Preference, error) {
	var (
		p    Preference
		typ  string
		freq string
	)
	if err := row.Scan(&p.AccountID, &typ, &freq, &p.UpdatedAt); err != nil {
		return p, fmt.Errorf("scan preference: %w", err)
	}
	p.EmailType = catalog.EmailID(typ)
	p.Frequency = displayFrequency(freq)
	return p, nil
}

// displayFrequency maps stored values to the capitalised form. Unknown
// values read as Never.
func displayFrequency(stored string) catalog.Frequency {
	f, err := catalog.ParseFrequency(stored)
	if err != nil {
		return catalog.Never
	}
	return f
}

func toStrings(ids []catalog.EmailID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
