package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Meeting-BaaS/emails/internal/usage"
)

func TestQualifies(t *testing.T) {
	t.Parallel()

	w := usage.Window{Start: date(2025, 3, 1), End: date(2025, 3, 2)}
	end := w.Start.Add(12 * time.Hour)
	run := func(seconds int, errs *string) usage.Run {
		return usage.Run{CreatedAt: end.Add(-time.Duration(seconds) * time.Second), EndedAt: &end, Errors: errs}
	}
	str := func(s string) *string { return &s }
	outside := w.End.Add(time.Hour)

	tests := []struct {
		name string
		run  usage.Run
		want bool
	}{
		{name: "zero duration", run: run(0, nil), want: false},
		{name: "negative duration", run: run(-5, nil), want: false},
		{name: "one second", run: run(1, nil), want: true},
		{name: "exactly at the cap", run: run(15000, nil), want: true},
		{name: "one second over the cap", run: run(15001, nil), want: false},
		{name: "stuck bot of 20000 seconds", run: run(20000, nil), want: false},
		{name: "customer-side error counts", run: run(600, str("BotNotAccepted")), want: true},
		{name: "internal error is excluded", run: run(600, str("Internal error: transcoder crashed")), want: false},
		{name: "marker is case-sensitive", run: run(600, str("internal timeout")), want: true},
		{name: "still running", run: usage.Run{CreatedAt: w.Start}, want: false},
		{name: "ended after the window", run: usage.Run{CreatedAt: w.End, EndedAt: &outside}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usage.Qualifies(tt.run, w))
		})
	}
}

func TestJobFilterMatchesQualifies(t *testing.T) {
	t.Parallel()

	assert.Contains(t, usage.JobFilter, "> 0")
	assert.Contains(t, usage.JobFilter, "<= 15000")
	assert.Contains(t, usage.JobFilter, "NOT LIKE '%Internal%'")
	assert.Contains(t, usage.JobFilter, "b.ended_at >= $1 AND b.ended_at < $2")
}
