// Package usage aggregates completed bot jobs into the figures shown in
// usage report emails.
package usage

import (
	"fmt"
	"time"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// Window is a half-open UTC time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Last is the final instant inside the window, used for display.
func (w Window) Last() time.Time {
	return w.End.Add(-time.Nanosecond)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowFor returns the completed period before now for f: yesterday for
// Daily, the previous Sunday-to-Saturday week for Weekly and the previous
// calendar month for Monthly.
func WindowFor(f catalog.Frequency, now time.Time) (Window, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch f {
	case catalog.Daily:
		return Window{Start: today.AddDate(0, 0, -1), End: today}, nil
	case catalog.Weekly:
		thisWeek := today.AddDate(0, 0, -int(today.Weekday()))
		return Window{Start: thisWeek.AddDate(0, 0, -7), End: thisWeek}, nil
	case catalog.Monthly:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: thisMonth.AddDate(0, -1, 0), End: thisMonth}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrNoWindow, f)
	}
}
