package mailer

import "errors"

var (
	ErrNoRecipient        = errors.New("mailer: email must have at least one recipient")
	ErrNoSubject          = errors.New("mailer: email must have a subject")
	ErrNoContent          = errors.New("mailer: email must have content")
	ErrEmptyBatch         = errors.New("mailer: batch is empty")
	ErrBatchTooLarge      = errors.New("mailer: batch exceeds provider limit")
	ErrBatchMismatch      = errors.New("mailer: provider returned a different number of ids")
	ErrSendFailed         = errors.New("mailer: failed to send email")
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")
)
