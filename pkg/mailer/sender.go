package mailer

import "context"

// Sender delivers a single email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// BatchSender delivers several emails in one provider call. The returned ids
// are in the same order as the emails.
type BatchSender interface {
	SendBatch(ctx context.Context, emails []*Email) ([]string, error)
}

// Provider is a Sender that also supports batches.
type Provider interface {
	Sender
	BatchSender
}
