package usage

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

const dateLayout = "2 Jan 2006"

var printer = message.NewPrinter(language.English)

// FormatNumber rounds to two decimals and groups thousands: 1234.5 -> "1,234.50".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return printer.Sprintf("%.2f", math.Round(v*100)/100)
}

// DurationString describes the window in the report body.
func DurationString(f catalog.Frequency, w Window) string {
	start := w.Start.Format(dateLayout)
	switch f {
	case catalog.Daily:
		return "for today, " + start
	case catalog.Weekly:
		return "from " + start + " to " + w.Last().Format(dateLayout)
	case catalog.Monthly:
		return "for the month of " + w.Start.Format("January 2006")
	default:
		return ""
	}
}

// Subject is the usage report subject line for f.
func Subject(f catalog.Frequency, w Window) string {
	prefix := string(f) + " Usage Report • "
	switch f {
	case catalog.Daily:
		return prefix + w.Start.Format(dateLayout)
	case catalog.Weekly:
		return prefix + w.Start.Format(dateLayout) + " - " + w.Last().Format(dateLayout)
	case catalog.Monthly:
		return prefix + w.Start.Format("January 2006")
	default:
		return ""
	}
}

// InternalSubject is the subject of the company-wide report.
func InternalSubject(w Window) string {
	return "Meeting BaaS Usage Report • " + w.Start.Format(dateLayout) + " - " + w.Last().Format(dateLayout)
}
