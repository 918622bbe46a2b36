package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrAccountNotFound is returned when no account matches a lookup.
var ErrAccountNotFound = errors.New("account not found")

// Account is the subset of the accounts table the service reads.
type Account struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Accounts reads the externally owned accounts table.
type Accounts struct {
	db DBTX
}

func NewAccounts(db DBTX) *Accounts {
	return &Accounts{db: db}
}

const accountColumns = `id, email, COALESCE(firstname, ''), COALESCE(lastname, '')`

// ByEmail returns the account with the exact email address.
func (a *Accounts) ByEmail(ctx context.Context, email string) (Account, error) {
	var acc Account
	err := a.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1 LIMIT 1`, email,
	).Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("account by email: %w", err)
	}
	return acc, nil
}

// IDsByEmail maps each known address to its account id. Unknown addresses
// are absent from the result.
func (a *Accounts) IDsByEmail(ctx context.Context, emails []string) (map[string]int64, error) {
	out := make(map[string]int64, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	rows, err := a.db.Query(ctx, `SELECT id, email FROM accounts WHERE email = ANY($1)`, emails)
	if err != nil {
		return nil, fmt.Errorf("accounts by email: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			email string
		)
		if err := rows.Scan(&id, &email); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out[email] = id
	}
	return out, rows.Err()
}

// WithDomain lists accounts whose email ends with "@"+domain.
func (a *Accounts) WithDomain(ctx context.Context, domain string) ([]Account, error) {
	rows, err := a.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email LIKE $1 ORDER BY id`,
		"%@"+escapeLike(domain),
	)
	if err != nil {
		return nil, fmt.Errorf("accounts with domain: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Account, error) {
		var acc Account
		err := row.Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName)
		return acc, err
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
