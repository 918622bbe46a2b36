package reports

import (
	"context"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// TaskName is the job task that runs a usage report send.
const TaskName = "usage_reports.send"

// SendPayload selects the run. Internal runs ignore Frequency and use the
// configured internal frequency.
type SendPayload struct {
	Frequency catalog.Frequency `json:"frequency,omitempty"`
	Internal  bool              `json:"internal,omitempty"`
}

// SendTask adapts a Sender to the job manager.
type SendTask struct {
	sender *Sender
}

func NewSendTask(s *Sender) *SendTask {
	return &SendTask{sender: s}
}

func (t *SendTask) Name() string { return TaskName }

func (t *SendTask) Handle(ctx context.Context, p SendPayload) error {
	if p.Internal {
		_, err := t.sender.SendInternal(ctx)
		return err
	}
	_, err := t.sender.Send(ctx, p.Frequency)
	return err
}

// Schedule is a cron expression with the payload it enqueues.
type Schedule struct {
	Expr    string
	Payload SendPayload
}

// Schedules lists the configured report schedules. Empty expressions are
// left out.
func (c Config) Schedules() []Schedule {
	all := []Schedule{
		{c.DailyCron, SendPayload{Frequency: catalog.Daily}},
		{c.WeeklyCron, SendPayload{Frequency: catalog.Weekly}},
		{c.MonthlyCron, SendPayload{Frequency: catalog.Monthly}},
		{c.InternalCron, SendPayload{Internal: true}},
	}
	out := all[:0]
	for _, s := range all {
		if s.Expr != "" {
			out = append(out, s)
		}
	}
	return out
}
