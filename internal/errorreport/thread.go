package errorreport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var sequencePattern = regexp.MustCompile(`message-(\d+)@`)

// ValidateBotUUID rejects anything google/uuid cannot parse.
func ValidateBotUUID(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidBotUUID, s)
	}
	return nil
}

// Threader builds RFC 5322 message ids under one domain.
type Threader struct {
	domain string
}

func NewThreader(domain string) Threader {
	if domain == "" {
		domain = "meetingbaas.com"
	}
	return Threader{domain: domain}
}

// MessageID is the id of message seq in the thread of botUUID.
func (t Threader) MessageID(botUUID string, seq int) string {
	return fmt.Sprintf("<error-%s-message-%d@%s>", botUUID, seq, t.domain)
}

// NewMessageID starts a thread.
func (t Threader) NewMessageID(botUUID string) string {
	return t.MessageID(botUUID, 0)
}

// NextMessageID continues a thread after prior. The sequence follows the
// number in the last prior id and restarts at 0 when it has none.
func (t Threader) NextMessageID(botUUID string, prior []string) (string, error) {
	if len(prior) == 0 {
		return "", ErrNoPriorMessage
	}
	seq := 0
	if m := sequencePattern.FindStringSubmatch(prior[len(prior)-1]); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			seq = n + 1
		}
	}
	return t.MessageID(botUUID, seq), nil
}

// References is the References header value for a message that follows
// prior, or self when it opens the thread.
func References(prior []string, self string) string {
	if len(prior) == 0 {
		return self
	}
	return strings.Join(prior, " ")
}
