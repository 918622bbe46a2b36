package account

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsubscribed   = errors.New("account: not subscribed to activity-updates")
	ErrNoPreviousSend = errors.New("account: no previous email of this type")
	ErrNoStoredBody   = errors.New("account: previous email has no stored content")
	ErrNotResendable  = errors.New("account: email type cannot be resent")
)

// CooldownError is returned when a send was refused because an earlier one
// is still inside its cooldown window.
type CooldownError struct {
	NextAvailableAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("account: cooling down until %s", e.NextAvailableAt.Format(time.RFC3339))
}
