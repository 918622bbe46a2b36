package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxBatchSize is the provider's hard limit on emails per batch call.
const MaxBatchSize = 100

// Observer is notified after every provider call. kind is "single" or
// "batch" and n the number of emails in the call.
type Observer interface {
	ObserveSend(kind string, n int, err error, elapsed time.Duration)
}

// Mailer validates emails before handing them to the provider and reports
// every call to its observers.
type Mailer struct {
	provider  Provider
	observers []Observer
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithObserver adds an observer; nil is ignored.
func WithObserver(o Observer) Option {
	return func(m *Mailer) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// New creates a Mailer on top of provider.
func New(provider Provider, opts ...Option) *Mailer {
	m := &Mailer{provider: provider}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send validates and sends one email, returning the provider message id.
func (m *Mailer) Send(ctx context.Context, email *Email) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}

	started := time.Now()
	id, err := m.provider.Send(ctx, email)
	m.observe("single", 1, err, time.Since(started))
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	return id, nil
}

// SendBatch validates and sends up to MaxBatchSize emails in one call. The
// returned ids line up with emails by index; a provider answer of another
// length fails with ErrBatchMismatch.
func (m *Mailer) SendBatch(ctx context.Context, emails []*Email) ([]string, error) {
	if len(emails) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(emails) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(emails), MaxBatchSize)
	}
	for i, e := range emails {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("email %d: %w", i, err)
		}
	}

	started := time.Now()
	ids, err := m.provider.SendBatch(ctx, emails)
	if err == nil && len(ids) != len(emails) {
		err = fmt.Errorf("%w: sent %d, got %d", ErrBatchMismatch, len(emails), len(ids))
	}
	m.observe("batch", len(emails), err, time.Since(started))
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	return ids, nil
}

func (m *Mailer) observe(kind string, n int, err error, elapsed time.Duration) {
	for _, o := range m.observers {
		o.ObserveSend(kind, n, err, elapsed)
	}
}
