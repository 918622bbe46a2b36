package mailer

import "fmt"

// Tags are provider tags attached to a message. Presence-only tags use
// struct{}{} as the value.
type Tags map[string]any

// Recipient formats a name and address as "Name <email>".
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a fully rendered message ready for a Sender.
type Email struct {
	Headers map[string]string // e.g. Message-ID and References for threaded reports
	Tags    Tags
	Subject string
	HTML    string
	Text    string
	From    string // empty uses the provider default
	ReplyTo string
	To      []string
	CC      []string
	BCC     []string
}

// Validate checks the fields every provider requires.
func (e *Email) Validate() error {
	switch {
	case e == nil || len(e.To) == 0:
		return ErrNoRecipient
	case e.Subject == "":
		return ErrNoSubject
	case e.HTML == "" && e.Text == "":
		return ErrNoContent
	}
	return nil
}
