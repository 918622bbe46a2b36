// Package account sends the emails tied to a single account: the system
// notifications requested by the backend, the transactional verification
// and password reset links, and user-requested resends.
package account

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Meeting-BaaS/emails/internal/billing"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/cooldown"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/internal/usage"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

// SystemCooldown is the minimum gap between two system notifications of the
// same type to one account.
const SystemCooldown = 24 * time.Hour

// SystemMessage closes every system notification.
const SystemMessage = "This is an automated service notification for your Meeting BaaS account. " +
	"For immediate assistance, please contact our support team."

type (
	Sender interface {
		Send(ctx context.Context, email *mailer.Email) (string, error)
	}
	Preferences interface {
		IsUnsubscribed(ctx context.Context, accountID int64, id catalog.EmailID) (bool, error)
		SeedDefaults(ctx context.Context, accountID int64, types []catalog.EmailType) (bool, error)
	}
	Cooldown interface {
		Check(ctx context.Context, accountID int64, id catalog.EmailID) cooldown.Decision
		CheckSystem(ctx context.Context, accountID int64, id catalog.EmailID, window time.Duration) cooldown.Decision
	}
	TokenPacks interface {
		TokenPacks(ctx context.Context) ([]billing.TokenPack, error)
	}
	Recorder interface {
		Log(ctx context.Context, e sendlog.Entry)
	}
)

type Deps struct {
	Sender       Sender
	Preferences  Preferences
	Cooldown     Cooldown
	Packs        TokenPacks
	Recorder     Recorder
	Renderer     *templates.Renderer
	Links        links.Links
	SupportEmail string
	Logger       *slog.Logger
}

// Service sends the per-account system and transactional emails.
type Service struct {
	d Deps
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{d: d}
}

// Requests use snake_case because they come from the backend.
type (
	InsufficientTokensRequest struct {
		AccountID       int64   `json:"account_id" validate:"gt=0"`
		Email           string  `json:"email" validate:"required,email"`
		FirstName       string  `json:"first_name"`
		AvailableTokens float64 `json:"available_tokens"`
		RequiredTokens  float64 `json:"required_tokens" validate:"gt=0"`
	}
	PaymentActivationRequest struct {
		AccountID    int64   `json:"account_id" validate:"gt=0"`
		Email        string  `json:"email" validate:"required,email"`
		FirstName    string  `json:"first_name"`
		TokenBalance float64 `json:"token_balance"`
	}
	LinkRequest struct {
		Email     string `json:"email" validate:"required,email"`
		FirstName string `json:"firstName"`
		URL       string `json:"url" validate:"required,url"`
	}
)

// Sent is the provider id of a delivered email.
type Sent struct {
	ID string `json:"id"`
}

var rates = templates.Rates{
	RecordingRate:     billing.RecordingRate,
	TranscriptionRate: billing.TranscriptionRate,
	StreamingRate:     billing.StreamingRate,
}

// InsufficientTokens tells an account a recording failed for lack of tokens
// and lists the token packs on sale.
func (s *Service) InsufficientTokens(ctx context.Context, req InsufficientTokensRequest) (Sent, error) {
	const id = catalog.InsufficientTokensRecording
	if err := s.gate(ctx, req.AccountID, id); err != nil {
		return Sent{}, err
	}

	packs, err := s.d.Packs.TokenPacks(ctx)
	if err != nil {
		s.d.Logger.WarnContext(ctx, "token packs unavailable, sending without them",
			slog.Int64("account_id", req.AccountID), slog.String("error", err.Error()))
		packs = nil
	}

	data := templates.InsufficientTokensData{
		Base:            templates.NewBase(req.FirstName, s.d.SupportEmail, s.d.Links.Unsubscribe(catalog.ActivityUpdates)),
		Rates:           rates,
		AvailableTokens: usage.FormatNumber(req.AvailableTokens),
		RequiredTokens:  usage.FormatNumber(req.RequiredTokens),
		TokenPacks:      packRows(packs),
		BillingLink:     s.d.Links.Billing,
		SystemMessage:   SystemMessage,
	}
	return s.sendSystem(ctx, req.AccountID, req.Email, id, templates.InsufficientTokens, data, map[string]any{
		"available_tokens": formatRaw(req.AvailableTokens),
		"required_tokens":  formatRaw(req.RequiredTokens),
	})
}

// PaymentActivation warns an account that recording will pause until it
// activates payment.
func (s *Service) PaymentActivation(ctx context.Context, req PaymentActivationRequest) (Sent, error) {
	const id = catalog.PaymentActivation
	if err := s.gate(ctx, req.AccountID, id); err != nil {
		return Sent{}, err
	}

	data := templates.PaymentActivationData{
		Base:          templates.NewBase(req.FirstName, s.d.SupportEmail, s.d.Links.Unsubscribe(catalog.ActivityUpdates)),
		Rates:         rates,
		TokenBalance:  usage.FormatNumber(req.TokenBalance),
		BillingLink:   s.d.Links.Billing,
		SystemMessage: SystemMessage,
	}
	return s.sendSystem(ctx, req.AccountID, req.Email, id, templates.PaymentActivation, data, map[string]any{
		"token_balance": formatRaw(req.TokenBalance),
	})
}

// VerificationLink and ResetPassword are transactional and never logged.
func (s *Service) VerificationLink(ctx context.Context, req LinkRequest) (Sent, error) {
	return s.sendLink(ctx, templates.VerificationLink, req)
}

func (s *Service) ResetPassword(ctx context.Context, req LinkRequest) (Sent, error) {
	return s.sendLink(ctx, templates.ResetPassword, req)
}

// SeedDefaultPreferences stores the default frequency of every email type
// for a new account. created is false when it already had preferences.
func (s *Service) SeedDefaultPreferences(ctx context.Context, accountID int64) (created bool, err error) {
	return s.d.Preferences.SeedDefaults(ctx, accountID, catalog.Types())
}

// gate applies the activity-updates subscription and the system cooldown.
func (s *Service) gate(ctx context.Context, accountID int64, id catalog.EmailID) error {
	unsubscribed, err := s.d.Preferences.IsUnsubscribed(ctx, accountID, catalog.ActivityUpdates)
	if err != nil {
		return err
	}
	if unsubscribed {
		s.d.Logger.DebugContext(ctx, "account is not subscribed to activity-updates, skipping",
			slog.Int64("account_id", accountID), slog.String("email_type", string(id)))
		return ErrUnsubscribed
	}

	d := s.d.Cooldown.CheckSystem(ctx, accountID, id, SystemCooldown)
	if !d.CanSend {
		return s.coolingDown(ctx, accountID, id, d)
	}
	return nil
}

func (s *Service) sendSystem(ctx context.Context, accountID int64, to string, id catalog.EmailID, l templates.Layout, data any, extra map[string]any) (Sent, error) {
	tmpl, err := s.d.Renderer.Compose(ctx, l)
	if err != nil {
		return Sent{}, err
	}
	html, err := tmpl.Render(data)
	if err != nil {
		return Sent{}, err
	}

	subject := tmpl.Subject()
	providerID, err := s.d.Sender.Send(ctx, &mailer.Email{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Tags:    mailer.Tags{"email_type": string(id)},
	})

	meta := map[string]any{sendlog.MetaTemplate: html}
	for k, v := range extra {
		meta[k] = v
	}
	entry := sendlog.Entry{
		AccountID:   accountID,
		EmailType:   id,
		Subject:     subject,
		TriggeredBy: cooldown.TriggeredBySystem,
		Metadata:    meta,
		Success:     err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
		s.d.Recorder.Log(ctx, entry)
		return Sent{}, err
	}
	meta[sendlog.MetaResendID] = providerID
	s.d.Recorder.Log(ctx, entry)

	s.d.Logger.InfoContext(ctx, "system email sent",
		slog.Int64("account_id", accountID), slog.String("email_type", string(id)))
	return Sent{ID: providerID}, nil
}

func (s *Service) sendLink(ctx context.Context, l templates.Layout, req LinkRequest) (Sent, error) {
	base := templates.NewBase(req.FirstName, s.d.SupportEmail, "")
	base.HideUnsubscribeLink = true

	tmpl, err := s.d.Renderer.Compose(ctx, l)
	if err != nil {
		return Sent{}, err
	}
	html, err := tmpl.Render(templates.LinkData{Base: base, URL: req.URL})
	if err != nil {
		return Sent{}, err
	}
	id, err := s.d.Sender.Send(ctx, &mailer.Email{
		To:      []string{req.Email},
		Subject: tmpl.Subject(),
		HTML:    html,
	})
	if err != nil {
		return Sent{}, err
	}
	return Sent{ID: id}, nil
}

func packRows(packs []billing.TokenPack) []templates.TokenPack {
	rows := make([]templates.TokenPack, len(packs))
	for i, p := range packs {
		rows[i] = templates.TokenPack{
			Name:           p.Name,
			Tokens:         usage.FormatNumber(p.Tokens),
			Price:          usage.FormatNumber(p.Price),
			RecordingHours: usage.FormatNumber(p.RecordingHours),
			PricePerHour:   usage.FormatNumber(p.PricePerHour),
			Popular:        p.Popular,
		}
	}
	return rows
}

func formatRaw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Service) coolingDown(ctx context.Context, accountID int64, id catalog.EmailID, d cooldown.Decision) error {
	var next time.Time
	if d.NextAvailableAt != nil {
		next = *d.NextAvailableAt
	}
	s.d.Logger.DebugContext(ctx, "email cooling down",
		slog.Int64("account_id", accountID), slog.String("email_type", string(id)),
		slog.Time("next_available_at", next))
	return &CooldownError{NextAvailableAt: next}
}
