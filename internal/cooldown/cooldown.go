// Package cooldown decides whether an email may be sent again, based only
// on the timestamps of earlier successful sends in email_logs.
//
// Lookup failures never block a send: the error is logged and counted and
// the decision is "allowed".
package cooldown

import (
	"context"
	"log/slog"
	"time"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// Config holds the user resend limits.
type Config struct {
	// WindowHours is the resend period in whole hours.
	WindowHours           int  `env:"RESENDS_ALLOWED_PERIOD" envDefault:"24"`
	MaxAttempts           int  `env:"NUMBER_OF_RESENDS_ALLOWED" envDefault:"3"`
	DisableSystemCooldown bool `env:"DISABLE_COOLDOWN_FOR_SYSTEM_EMAILS" envDefault:"false"`
}

// Window returns the resend period, 24h when unset.
func (c Config) Window() time.Duration {
	if c.WindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.WindowHours) * time.Hour
}

// Decision is the outcome of a cooldown check.
type Decision struct {
	CanSend           bool       `json:"canSend"`
	NextAvailableAt   *time.Time `json:"nextAvailableAt,omitempty"`
	RemainingAttempts int        `json:"remainingAttempts,omitempty"`
}

// LogReader returns send timestamps from email_logs.
type LogReader interface {
	// SuccessfulSince lists sent_at of successful rows for the account and
	// type triggered by triggeredBy at or after since, oldest first.
	SuccessfulSince(ctx context.Context, accountID int64, id catalog.EmailID, triggeredBy string, since time.Time) ([]time.Time, error)
	// LatestSuccessfulSince returns the newest such sent_at, or nil.
	LatestSuccessfulSince(ctx context.Context, accountID int64, id catalog.EmailID, triggeredBy string, since time.Time) (*time.Time, error)
}

// ErrorCounter is notified of failed lookups.
type ErrorCounter interface {
	CooldownError(scope string)
}

// Checker applies Config to the rows a LogReader returns.
type Checker struct {
	logs    LogReader
	cfg     Config
	window  time.Duration
	log     *slog.Logger
	counter ErrorCounter
	now     func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for lookup failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.log = l
		}
	}
}

// WithErrorCounter reports lookup failures to m.
func WithErrorCounter(m ErrorCounter) Option {
	return func(c *Checker) { c.counter = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func NewChecker(logs LogReader, cfg Config, opts ...Option) *Checker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	c := &Checker{
		logs:   logs,
		cfg:    cfg,
		window: cfg.Window(),
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check applies the user resend limit to rows triggered by "user".
func (c *Checker) Check(ctx context.Context, accountID int64, id catalog.EmailID) Decision {
	now := c.now().UTC()
	sent, err := c.logs.SuccessfulSince(ctx, accountID, id, TriggeredByUser, now.Add(-c.window))
	if err != nil {
		c.failOpen(ctx, "user", accountID, id, err)
		return Decision{CanSend: true}
	}
	return Decide(sent, now, c.window, c.cfg.MaxAttempts)
}

// CheckSystem blocks a system email when one was sent within window.
func (c *Checker) CheckSystem(ctx context.Context, accountID int64, id catalog.EmailID, window time.Duration) Decision {
	if c.cfg.DisableSystemCooldown {
		return Decision{CanSend: true}
	}
	now := c.now().UTC()
	last, err := c.logs.LatestSuccessfulSince(ctx, accountID, id, TriggeredBySystem, now.Add(-window))
	if err != nil {
		c.failOpen(ctx, "system", accountID, id, err)
		return Decision{CanSend: true}
	}
	if last == nil {
		return Decision{CanSend: true}
	}
	next := last.UTC().Add(window)
	return Decision{CanSend: false, NextAvailableAt: &next}
}

func (c *Checker) failOpen(ctx context.Context, scope string, accountID int64, id catalog.EmailID, err error) {
	c.log.ErrorContext(ctx, "cooldown check failed, allowing send",
		slog.String("scope", scope),
		slog.Int64("account_id", accountID),
		slog.String("email_type", string(id)),
		slog.Any("error", err),
	)
	if c.counter != nil {
		c.counter.CooldownError(scope)
	}
}

// Decide is the user resend rule. sent must be ascending. When the account
// has used maxAttempts sends in the window, the next send is possible one window
// after the oldest of them.
func Decide(sent []time.Time, now time.Time, window time.Duration, maxAttempts int) Decision {
	start := now.Add(-window)
	var inWindow []time.Time
	for _, t := range sent {
		if !t.Before(start) {
			inWindow = append(inWindow, t)
		}
	}
	if len(inWindow) >= maxAttempts {
		next := inWindow[0].UTC().Add(window)
		return Decision{CanSend: false, NextAvailableAt: &next}
	}
	return Decision{CanSend: true, RemainingAttempts: maxAttempts - len(inWindow)}
}
