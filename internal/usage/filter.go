package usage

import (
	"strconv"
	"strings"
	"time"
)

const (
	// MaxJobSeconds caps a qualifying bot run; longer runs are stuck bots.
	MaxJobSeconds = 15000
	// InternalErrorMarker marks failures caused on our side, which do not
	// count against the customer.
	InternalErrorMarker = "Internal"
)

// Run is one finished bot as stored in the bots table.
type Run struct {
	CreatedAt time.Time
	EndedAt   *time.Time
	Errors    *string
}

// Qualifies reports whether r counts toward the stats of w: it ended inside
// w, ran for more than zero and at most MaxJobSeconds seconds, and did not
// fail with an internal error. jobFilter is the SQL form of the same rule.
func Qualifies(r Run, w Window) bool {
	if r.EndedAt == nil || !w.Contains(*r.EndedAt) {
		return false
	}
	d := r.EndedAt.Sub(r.CreatedAt)
	if d <= 0 || d > MaxJobSeconds*time.Second {
		return false
	}
	return r.Errors == nil || !strings.Contains(*r.Errors, InternalErrorMarker)
}

var jobFilter = `
	b.ended_at IS NOT NULL
	AND b.ended_at >= $1 AND b.ended_at < $2
	AND EXTRACT(EPOCH FROM (b.ended_at - b.created_at)) > 0
	AND EXTRACT(EPOCH FROM (b.ended_at - b.created_at)) <= ` + strconv.Itoa(MaxJobSeconds) + `
	AND (b.errors IS NULL OR b.errors NOT LIKE '%` + InternalErrorMarker + `%')`
