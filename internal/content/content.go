// Package content stores the admin-authored blocks that broadcast emails are
// assembled from.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/store"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/pkg/sanitizer"
)

var (
	ErrNotFound = errors.New("content: not found")
	ErrEmpty    = errors.New("content: content cannot be empty")
	ErrQuery    = errors.New("content: query failed")
	ErrWrite    = errors.New("content: write failed")
)

// Format is the markup of submitted content.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Content is one email_content row.
type Content struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"accountId"`
	EmailType   catalog.EmailID `json:"emailType"`
	Content     string          `json:"content"`
	ContentText string          `json:"contentText"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Draft is submitted content before it is sanitized and stored.
type Draft struct {
	EmailType   catalog.EmailID
	Content     string
	ContentText string
	Format      Format
}

// Prepare renders and sanitizes the draft. The plain text falls back to the
// text of the rendered HTML when empty.
func (d Draft) Prepare() (html, text string, err error) {
	src := d.Content
	if d.Format == FormatMarkdown {
		if src, err = templates.Markdown(src); err != nil {
			return "", "", err
		}
	}
	html = strings.TrimSpace(sanitizer.EmailHTML(src))
	if html == "" {
		return "", "", ErrEmpty
	}
	text = strings.TrimSpace(sanitizer.PlainText(d.ContentText))
	if text == "" {
		text = sanitizer.PlainText(html)
	}
	return html, text, nil
}

const columns = `id, account_id, email_type, content, content_text, created_at`

// Store reads and writes email_content.
type Store struct {
	db store.DBTX
}

func NewStore(db store.DBTX) *Store {
	return &Store{db: db}
}

// Create stores a new block authored by accountID.
func (s *Store) Create(ctx context.Context, accountID int64, d Draft) (Content, error) {
	html, text, err := d.Prepare()
	if err != nil {
		return Content{}, err
	}
	rows, err := s.db.Query(ctx,
		`INSERT INTO email_content (account_id, email_type, content, content_text)
		 VALUES ($1, $2, $3, $4) RETURNING `+columns,
		accountID, string(d.EmailType), html, text)
	if err != nil {
		return Content{}, errors.Join(ErrWrite, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanContent)
	if err != nil {
		return Content{}, errors.Join(ErrWrite, err)
	}
	return c, nil
}

// Update replaces the body of block id.
func (s *Store) Update(ctx context.Context, id int64, d Draft) (Content, error) {
	html, text, err := d.Prepare()
	if err != nil {
		return Content{}, err
	}
	rows, err := s.db.Query(ctx,
		`UPDATE email_content SET email_type = $2, content = $3, content_text = $4
		  WHERE id = $1 RETURNING `+columns,
		id, string(d.EmailType), html, text)
	if err != nil {
		return Content{}, errors.Join(ErrWrite, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanContent)
	if errors.Is(err, pgx.ErrNoRows) {
		return Content{}, ErrNotFound
	}
	if err != nil {
		return Content{}, errors.Join(ErrWrite, err)
	}
	return c, nil
}

// Delete removes block id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM email_content WHERE id = $1`, id)
	if err != nil {
		return errors.Join(ErrWrite, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns blocks newest first, optionally restricted to one email type.
func (s *Store) List(ctx context.Context, emailType catalog.EmailID) ([]Content, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+columns+` FROM email_content
		  WHERE ($1 = '' OR email_type = $1)
		  ORDER BY created_at DESC, id DESC`, string(emailType))
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	list, err := pgx.CollectRows(rows, scanContent)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return list, nil
}

// ByIDs returns the blocks in the order of ids. Any unknown id fails with
// ErrNotFound.
func (s *Store) ByIDs(ctx context.Context, ids []int64) ([]Content, error) {
	rows, err := s.db.Query(ctx, `SELECT `+columns+` FROM email_content WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	found, err := pgx.CollectRows(rows, scanContent)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return InOrder(found, ids)
}

// InOrder arranges found by ids, failing when an id is missing.
func InOrder(found []Content, ids []int64) ([]Content, error) {
	byID := make(map[int64]Content, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]Content, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		out = append(out, c)
	}
	return out, nil
}

func scanContent(row pgx.CollectableRow) (Content, error) {
	var (
		c   Content
		typ string
	)
	err := row.Scan(&c.ID, &c.AccountID, &typ, &c.Content, &c.ContentText, &c.CreatedAt)
	c.EmailType = catalog.EmailID(typ)
	return c, err
}
