// Package catalog describes the email types the service knows about, their
// domains and default frequencies, and the static content of broadcast emails.
package catalog

import "slices"

// EmailID identifies an email type. It is the value stored in
// email_preferences.email_type and email_logs.email_type.
type EmailID string

// Legacy ids are kept for rows written before the preference model existed.
const (
	InsufficientTokensRecording EmailID = "insufficient_tokens_recording"
	PaymentActivation           EmailID = "payment_activation"
	UsageReport                 EmailID = "usage_report"
	Welcome                     EmailID = "welcome"

	UsageReports       EmailID = "usage-reports"
	ActivityUpdates    EmailID = "activity-updates"
	ErrorReport        EmailID = "error-report"
	ProductUpdates     EmailID = "product-updates"
	Maintenance        EmailID = "maintenance"
	CompanyNews        EmailID = "company-news"
	APIChanges         EmailID = "api-changes"
	DeveloperResources EmailID = "developer-resources"
	Security           EmailID = "security"
	Billing            EmailID = "billing"
	Custom             EmailID = "custom"
)

// AllEmailIDs lists every id accepted in stored rows.
var AllEmailIDs = []EmailID{
	InsufficientTokensRecording, PaymentActivation, UsageReport, Welcome,
	UsageReports, ActivityUpdates, ErrorReport, ProductUpdates, Maintenance,
	CompanyNews, APIChanges, DeveloperResources, Security, Billing, Custom,
}

// Valid reports whether id is a known email id.
func (id EmailID) Valid() bool {
	return slices.Contains(AllEmailIDs, id)
}

// Domain groups email types on the preferences page.
type Domain string

const (
	Reports       Domain = "Reports"
	Announcements Domain = "Announcements"
	Developers    Domain = "Developers"
	Account       Domain = "Account"
)

// EmailType is a user-facing email category.
type EmailType struct {
	ID               EmailID   `json:"id"`
	Name             string    `json:"name"`
	Domain           Domain    `json:"domain"`
	Required         bool      `json:"required"`
	Broadcast        bool      `json:"broadcast,omitempty"`
	DefaultFrequency Frequency `json:"defaultFrequency"`
}

var types = []EmailType{
	{ID: UsageReports, Name: "Usage Reports", Domain: Reports, DefaultFrequency: Weekly},
	{ID: ProductUpdates, Name: "Product Updates", Domain: Announcements, Broadcast: true, DefaultFrequency: Weekly},
	{ID: Maintenance, Name: "Maintenance Notifications", Domain: Announcements, Required: true, Broadcast: true, DefaultFrequency: Daily},
	{ID: CompanyNews, Name: "Company News", Domain: Announcements, Broadcast: true, DefaultFrequency: Monthly},
	{ID: APIChanges, Name: "API Changes", Domain: Developers, Broadcast: true, DefaultFrequency: Weekly},
	{ID: DeveloperResources, Name: "Developer Resources", Domain: Developers, Broadcast: true, DefaultFrequency: Monthly},
	{ID: Security, Name: "Security Alerts", Domain: Account, Required: true, DefaultFrequency: Daily},
	{ID: Billing, Name: "Billing Notifications", Domain: Account, Required: true, DefaultFrequency: Daily},
	{ID: ActivityUpdates, Name: "Activity Updates", Domain: Account, DefaultFrequency: Weekly},
}

// Types returns a copy of the catalog in display order.
func Types() []EmailType {
	return slices.Clone(types)
}

// Lookup finds a catalog type by id.
func Lookup(id EmailID) (EmailType, bool) {
	i := slices.IndexFunc(types, func(t EmailType) bool { return t.ID == id })
	if i < 0 {
		return EmailType{}, false
	}
	return types[i], true
}

// IsBroadcast reports whether id is a catalog type sent to many accounts.
func IsBroadcast(id EmailID) bool {
	t, ok := Lookup(id)
	return ok && t.Broadcast
}

// BroadcastTypes returns the types admins can send manually.
func BroadcastTypes() []EmailType {
	return filter(func(t EmailType) bool { return t.Broadcast })
}

// TypesInDomain returns the types of d.
func TypesInDomain(d Domain) []EmailType {
	return filter(func(t EmailType) bool { return t.Domain == d })
}

func filter(keep func(EmailType) bool) []EmailType {
	out := make([]EmailType, 0, len(types))
	for _, t := range types {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
