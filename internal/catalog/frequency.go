package catalog

import (
	"fmt"
	"strings"
)

// Frequency is how often an account wants to receive an email type.
// Stored lowercase, exposed capitalised.
type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Never   Frequency = "Never"
)

// Frequencies lists every frequency in display order.
var Frequencies = []Frequency{Daily, Weekly, Monthly, Never}

// ParseFrequency accepts any casing of a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	for _, f := range Frequencies {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
}

// Stored returns the lowercase form persisted in email_preferences.
func (f Frequency) Stored() string {
	return strings.ToLower(string(f))
}

// Periodic reports whether the frequency maps to a report window.
func (f Frequency) Periodic() bool {
	return f == Daily || f == Weekly || f == Monthly
}
