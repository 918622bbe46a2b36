package catalog

import "maps"

// BroadcastContent is the fixed framing of a broadcast email around the
// admin-authored content blocks.
type BroadcastContent struct {
	Subject   string `json:"subject"`
	IntroText string `json:"introText"`
	CTAButton string `json:"ctaButton"`
}

// BroadcastConfig is an immutable lookup of broadcast framing by email id.
type BroadcastConfig struct {
	entries map[EmailID]BroadcastContent
}

// NewBroadcastConfig copies m, so later writes to m are not observed.
func NewBroadcastConfig(m map[EmailID]BroadcastContent) BroadcastConfig {
	return BroadcastConfig{entries: maps.Clone(m)}
}

// Get returns the framing for id.
func (c BroadcastConfig) Get(id EmailID) (BroadcastContent, bool) {
	v, ok := c.entries[id]
	return v, ok
}

// DefaultBroadcastContent is the framing used by the service.
func DefaultBroadcastContent() map[EmailID]BroadcastContent {
	return map[EmailID]BroadcastContent{
		ProductUpdates: {
			Subject:   "Product Updates",
			IntroText: "Exciting new product updates are here!",
		},
		Maintenance: {
			Subject:   "Maintenance Notification",
			IntroText: "Scheduled maintenance notification.",
		},
		CompanyNews: {
			Subject:   "Company News",
			IntroText: "Latest company news and updates.",
		},
		APIChanges: {
			Subject:   "API Changes Notification",
			IntroText: "Important API changes coming your way.",
		},
		DeveloperResources: {
			Subject:   "New Developer Resources",
			IntroText: "Here are some new developer resources for you:",
		},
	}
}
