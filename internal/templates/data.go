package templates

import (
	"html/template"
	"time"
)

// FirstNamePlaceholder is rendered in place of the recipient's first name
// when a body is stored for later resends.
const FirstNamePlaceholder = "{{firstName}}"

// DefaultFirstName greets recipients without a first name.
const DefaultFirstName = "there"

// Base carries the fields the header and footer fragments read.
type Base struct {
	FirstName           string
	SupportEmail        string
	UnsubscribeLink     string
	HideUnsubscribeLink bool
	Year                int
}

// NewBase fills Base with the current year and a first name fallback.
func NewBase(firstName, supportEmail, unsubscribeLink string) Base {
	if firstName == "" {
		firstName = DefaultFirstName
	}
	return Base{
		FirstName:       firstName,
		SupportEmail:    supportEmail,
		UnsubscribeLink: unsubscribeLink,
		Year:            time.Now().UTC().Year(),
	}
}

// BroadcastData renders content.html. MainContent and CTAButton are trusted
// HTML produced by the admin content pipeline.
type BroadcastData struct {
	Base
	IntroText   string
	MainContent template.HTML
	CTAButton   template.HTML
}

type ErrorReportData struct {
	Base
	BotUUID           string
	ChatID            string
	AdditionalContext string
	ChatLink          string
	LogLink           string
}

type ErrorReportReplyData struct {
	Base
	BotUUID  string
	Reply    string
	Resolved bool
	LogLink  string
}

// Rates are the displayed token prices per hour.
type Rates struct {
	RecordingRate     string
	TranscriptionRate string
	StreamingRate     string
}

// TokenPack is one row of the token pack table, already formatted.
type TokenPack struct {
	Name           string
	Tokens         string
	Price          string
	RecordingHours string
	PricePerHour   string
	Popular        bool
}

type InsufficientTokensData struct {
	Base
	Rates
	AvailableTokens string
	RequiredTokens  string
	TokenPacks      []TokenPack
	BillingLink     string
	SystemMessage   string
}

type PaymentActivationData struct {
	Base
	Rates
	TokenBalance  string
	BillingLink   string
	SystemMessage string
}

// LinkData renders the verification and password reset emails.
type LinkData struct {
	Base
	URL string
}

// PlatformRow is one platform line of a usage report.
type PlatformRow struct {
	Name       string
	Count      int
	Percentage string
	Success    string
}

type UsageReportData struct {
	Base
	DurationString      string
	InternalReport      bool
	TotalBots           int
	TotalHours          string
	TotalTokens         string
	ErrorRate           string
	AvgLength           string
	Platforms           []PlatformRow
	RecordingHours      string
	TranscriptionHours  string
	RecordingTokens     string
	TranscriptionTokens string
	AnalyticsLink       string
	UsageLink           string
}
