package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

// Config holds Resend provider settings.
type Config struct {
	APIKey string `env:"RESEND_API_KEY,required"`
	// From is the default sender, e.g. "Meeting BaaS <notifications@meetingbaas.com>".
	From string `env:"RESEND_EMAIL_FROM,required"`
	// BaseURL overrides the API endpoint; tests point it at a local server.
	BaseURL string `env:"RESEND_BASE_URL"`
}

// ErrNoID is returned when Resend accepts a message without returning its id.
var ErrNoID = errors.New("resend: no message id returned")

// Sender implements mailer.Provider on the Resend API.
type Sender struct {
	client *resend.Client
	from   string
}

// New creates a Resend sender. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) (*Sender, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resend: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Sender{client: client, from: cfg.From}, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, s.request(email))
	if err != nil {
		return "", fmt.Errorf("resend: send: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return "", ErrNoID
	}
	return resp.Id, nil
}

// SendBatch implements mailer.BatchSender. Resend answers with ids in
// request order.
func (s *Sender) SendBatch(ctx context.Context, emails []*mailer.Email) ([]string, error) {
	reqs := make([]*resend.SendEmailRequest, len(emails))
	for i, e := range emails {
		reqs[i] = s.request(e)
	}

	resp, err := s.client.Batch.SendWithContext(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("resend: send batch: %w", err)
	}
	if resp == nil {
		return nil, ErrNoID
	}

	ids := make([]string, len(resp.Data))
	for i, d := range resp.Data {
		if d.Id == "" {
			return nil, fmt.Errorf("%w: batch item %d", ErrNoID, i)
		}
		ids[i] = d.Id
	}
	return ids, nil
}

func (s *Sender) request(email *mailer.Email) *resend.SendEmailRequest {
	from := email.From
	if from == "" {
		from = s.from
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Cc:      email.CC,
		Bcc:     email.BCC,
		Headers: email.Headers,
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}
	return req
}

func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{Name: name, Value: tagValue(value)})
	}
	return result
}

// tagValue stringifies a tag value. Presence-only tags become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

var _ mailer.Provider = (*Sender)(nil)
