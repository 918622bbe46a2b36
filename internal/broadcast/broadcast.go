// Package broadcast sends admin-composed announcement emails to a list of
// recipients in one provider batch.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/content"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

// BatchSize is the most recipients one request may address. It stays under
// the provider limit of mailer.MaxBatchSize.
const BatchSize = 80

const blockSeparator = "<br><br>"

var (
	ErrContentNotFound = errors.New("broadcast: content not found")
	ErrBatchTooLarge   = fmt.Errorf("broadcast: more than %d recipients", BatchSize)
	ErrNoRecipients    = errors.New("broadcast: no recipients")
	ErrNoContent       = errors.New("broadcast: no content ids")
)

type (
	ContentSource interface {
		ByIDs(ctx context.Context, ids []int64) ([]content.Content, error)
	}
	AccountResolver interface {
		IDsByEmail(ctx context.Context, emails []string) (map[string]int64, error)
	}
	BatchSender interface {
		SendBatch(ctx context.Context, emails []*mailer.Email) ([]string, error)
	}
	Recorder interface {
		LogBatch(ctx context.Context, ds []sendlog.Delivery)
	}
)

// Recipient is an addressee of a broadcast.
type Recipient struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Request describes one broadcast. Subject overrides the configured subject
// of the email type when set.
type Request struct {
	EmailID     catalog.EmailID
	Frequency   catalog.Frequency
	Subject     string
	ContentIDs  []int64
	Recipients  []Recipient
	TriggeredBy string
}

// Result summarises a sent broadcast.
type Result struct {
	Subject     string   `json:"subject"`
	Sent        int      `json:"sent"`
	Logged      int      `json:"logged"`
	ProviderIDs []string `json:"ids"`
}

// Service assembles and sends broadcasts.
type Service struct {
	contents     ContentSource
	accounts     AccountResolver
	sender       BatchSender
	recorder     Recorder
	renderer     *templates.Renderer
	config       catalog.BroadcastConfig
	links        links.Links
	supportEmail string
	log          *slog.Logger
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Contents     ContentSource
	Accounts     AccountResolver
	Sender       BatchSender
	Recorder     Recorder
	Renderer     *templates.Renderer
	Config       catalog.BroadcastConfig
	Links        links.Links
	SupportEmail string
	Logger       *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		contents:     d.Contents,
		accounts:     d.Accounts,
		sender:       d.Sender,
		recorder:     d.Recorder,
		renderer:     d.Renderer,
		config:       d.Config,
		links:        d.Links,
		supportEmail: d.SupportEmail,
		log:          d.Logger,
	}
}

// Send validates req, renders one body per recipient and sends them in a
// single batch. Every recipient with a known account gets a log row paired
// with its provider id; the stored template keeps the first name
// placeholder so the email can be resent later.
func (s *Service) Send(ctx context.Context, req Request) (Result, error) {
	bc, err := s.validate(req)
	if err != nil {
		return Result{}, err
	}

	blocks, err := s.contents.ByIDs(ctx, req.ContentIDs)
	if errors.Is(err, content.ErrNotFound) {
		return Result{}, errors.Join(ErrContentNotFound, err)
	}
	if err != nil {
		return Result{}, err
	}

	// Resolved before sending so every accepted email can be logged.
	accountIDs, err := s.accounts.IDsByEmail(ctx, recipientEmails(req.Recipients))
	if err != nil {
		return Result{}, err
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = bc.Subject
	}

	tmpl, err := s.renderer.Compose(ctx, templates.Broadcast)
	if err != nil {
		return Result{}, err
	}

	data := templates.BroadcastData{
		IntroText:   bc.IntroText,
		MainContent: template.HTML(joinHTML(blocks)),
		CTAButton:   template.HTML(bc.CTAButton),
	}
	text := joinText(blocks)
	unsubscribe := s.links.Unsubscribe(req.EmailID)

	data.Base = templates.NewBase(templates.FirstNamePlaceholder, s.supportEmail, unsubscribe)
	stored, err := tmpl.Render(data)
	if err != nil {
		return Result{}, err
	}

	emails := make([]*mailer.Email, len(req.Recipients))
	for i, r := range req.Recipients {
		data.Base = templates.NewBase(r.FirstName, s.supportEmail, unsubscribe)
		html, err := tmpl.Render(data)
		if err != nil {
			return Result{}, err
		}
		emails[i] = &mailer.Email{
			To:      []string{r.Email},
			Subject: subject,
			HTML:    html,
			Text:    text,
			Tags:    mailer.Tags{"email_type": string(req.EmailID)},
		}
	}

	ids, sendErr := s.sender.SendBatch(ctx, emails)
	logged := s.record(ctx, req, accountIDs, subject, stored, ids, sendErr)
	if sendErr != nil {
		return Result{Subject: subject, Logged: logged}, sendErr
	}
	s.log.InfoContext(ctx, "broadcast sent",
		slog.String("email_type", string(req.EmailID)),
		slog.Int("recipients", len(emails)),
		slog.Int("logged", logged),
	)
	return Result{Subject: subject, Sent: len(ids), Logged: logged, ProviderIDs: ids}, nil
}

func (s *Service) validate(req Request) (catalog.BroadcastContent, error) {
	bc, ok := s.config.Get(req.EmailID)
	if !ok || !catalog.IsBroadcast(req.EmailID) {
		return bc, fmt.Errorf("%w: %s", catalog.ErrNotBroadcast, req.EmailID)
	}
	switch {
	case len(req.ContentIDs) == 0:
		return bc, ErrNoContent
	case len(req.Recipients) == 0:
		return bc, ErrNoRecipients
	case len(req.Recipients) > BatchSize:
		return bc, fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(req.Recipients))
	}
	return bc, nil
}

// record logs one row per recipient with a known account. A failed send is
// logged with success=false; ids that cannot be paired are dropped and the
// rows are still logged.
func (s *Service) record(ctx context.Context, req Request, accountIDs map[string]int64, subject, stored string, ids []string, sendErr error) int {
	entries := make([]sendlog.Entry, len(req.Recipients))
	for i, r := range req.Recipients {
		entries[i] = sendlog.Entry{
			AccountID:   accountIDs[r.Email],
			EmailType:   req.EmailID,
			Subject:     subject,
			TriggeredBy: req.TriggeredBy,
			Metadata:    map[string]any{sendlog.MetaTemplate: stored, "frequency": string(req.Frequency)},
			Success:     true,
		}
	}
	var paired []sendlog.Delivery
	if sendErr != nil {
		paired = sendlog.Failed(entries, sendErr)
	} else if p, err := sendlog.Pair(entries, ids); err != nil {
		s.log.ErrorContext(ctx, "failed to pair broadcast sends, logging without provider ids", slog.String("error", err.Error()))
		paired = sendlog.Unpaired(entries)
	} else {
		paired = p
	}

	known := paired[:0]
	for i, d := range paired {
		if _, ok := accountIDs[req.Recipients[i].Email]; !ok {
			s.log.WarnContext(ctx, "broadcast recipient has no account, not logged",
				slog.String("email", req.Recipients[i].Email))
			continue
		}
		known = append(known, d)
	}
	s.recorder.LogBatch(ctx, known)
	return len(known)
}

func recipientEmails(rs []Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Email
	}
	return out
}

func joinHTML(blocks []content.Content) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Content
	}
	return strings.Join(parts, blockSeparator)
}

func joinText(blocks []content.Content) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.ContentText
	}
	return strings.Join(parts, "\n\n")
}
