// Package sendlog records every email the service sends in email_logs and
// reads those records back for resends, threading and the admin log view.
package sendlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// Metadata keys written into email_logs.metadata.
const (
	MetaTemplate      = "template"
	MetaResendID      = "resend_id"
	MetaBotUUID       = "botUuid"
	MetaWebhookEvents = "webhook_events"
)

// Entry is one email_logs row to write.
type Entry struct {
	AccountID    int64
	EmailType    catalog.EmailID
	Subject      string
	TriggeredBy  string
	MessageIDs   []string
	Metadata     map[string]any
	Success      bool
	ErrorMessage string
}

// Delivery is an entry paired with the id the provider assigned to it.
type Delivery struct {
	Entry
	ProviderID string
}

// Pair matches entries with the provider ids of a batch send by index.
func Pair(entries []Entry, ids []string) ([]Delivery, error) {
	if len(entries) != len(ids) {
		return nil, fmt.Errorf("%w: %d entries, %d ids", ErrPairMismatch, len(entries), len(ids))
	}
	out := make([]Delivery, len(entries))
	for i, e := range entries {
		out[i] = Delivery{Entry: e, ProviderID: ids[i]}
	}
	return out, nil
}

// Unpaired keeps entries whose send was accepted but whose provider ids
// could not be matched. The rows are logged as sent, without ids, so webhook
// events for them will not match.
func Unpaired(entries []Entry) []Delivery {
	out := make([]Delivery, len(entries))
	for i, e := range entries {
		out[i] = Delivery{Entry: e}
	}
	return out
}

// Failed marks every entry of a rejected send as unsuccessful with cause as
// its error message.
func Failed(entries []Entry, cause error) []Delivery {
	out := make([]Delivery, len(entries))
	for i, e := range entries {
		e.Success = false
		if cause != nil {
			e.ErrorMessage = cause.Error()
		}
		out[i] = Delivery{Entry: e}
	}
	return out
}

// metadata returns the entry metadata with the provider id merged in. The
// caller's map is not modified.
func (d Delivery) metadata() map[string]any {
	if d.ProviderID == "" {
		return d.Metadata
	}
	m := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		m[k] = v
	}
	m[MetaResendID] = d.ProviderID
	return m
}

// Record is a stored log row read back for resends and threading.
type Record struct {
	ID          int64
	AccountID   int64
	EmailType   catalog.EmailID
	Subject     string
	TriggeredBy string
	SentAt      time.Time
	MessageIDs  []string
	Template    string
}

func splitMessageIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Event is a provider status event appended to a log row.
type Event struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Link      string    `json:"link,omitempty"`
}
