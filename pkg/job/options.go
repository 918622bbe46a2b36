package job

import (
	"context"
	"log/slog"
	"time"
)

// Config holds job manager settings parsed from the environment.
type Config struct {
	// Enabled starts the in-process scheduler. Cron endpoints work either way.
	Enabled     bool `env:"JOBS_ENABLED" envDefault:"false"`
	MaxWorkers  int  `env:"JOBS_MAX_WORKERS" envDefault:"2"`
	MaxAttempts int  `env:"JOBS_MAX_ATTEMPTS" envDefault:"1"`
	// Timeout bounds one job run. Zero means no limit; a usage report run
	// paces batches and can take much longer than River's one minute default.
	Timeout time.Duration `env:"JOBS_TIMEOUT" envDefault:"0"`
}

type config struct {
	registry    *taskRegistry
	logger      *slog.Logger
	schedules   []schedule
	maxWorkers  int
	maxAttempts int
	timeout     time.Duration
}

func newConfig() *config {
	return &config{registry: newTaskRegistry()}
}

type schedule struct {
	payload any
	task    string
	expr    string
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task. The task must implement Name() and
// Handle(ctx, P). The payload type P is passed explicitly:
//
//	type SendTask struct{ sender *reports.Sender }
//
//	func (t *SendTask) Name() string { return "usage_reports.send" }
//	func (t *SendTask) Handle(ctx context.Context, p SendPayload) error { ... }
//
//	job.WithTask[reports.SendPayload](reports.NewSendTask(sender))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typedTask[P, T]{task: task})
	}
}

// WithSchedule runs the registered task named task on a cron expression
// (5 fields: min hour day month weekday) with payload encoded as its JSON
// payload. The same task may be scheduled several times with different
// payloads. Unknown tasks and invalid expressions fail NewManager.
func WithSchedule(task, expr string, payload any) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{task: task, expr: expr, payload: payload})
	}
}

// WithLogger sets the logger for job processing.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers limits concurrent jobs on the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithMaxAttempts sets how many times a scheduled job runs before River
// discards it. One means no retries.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithJobTimeout bounds each job run. Zero or less disables the limit.
func WithJobTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// riverJobTimeout maps the configured timeout to River's convention, where
// zero selects its default and -1 disables the limit.
func riverJobTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return -1
	}
	return d
}
