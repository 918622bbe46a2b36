// Package errorreport emails users a confirmation when they report a failed
// bot and threads the support team's replies onto the same conversation.
package errorreport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/cooldown"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/store"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

const subjectPrefix = "Error Report Received"

// Subject is the subject of the first message of a bot's thread.
func Subject(botUUID string) string {
	return subjectPrefix + " - Bot " + botUUID
}

type (
	Sender interface {
		Send(ctx context.Context, email *mailer.Email) (string, error)
	}
	AccountFinder interface {
		ByEmail(ctx context.Context, email string) (store.Account, error)
	}
	History interface {
		LatestErrorReport(ctx context.Context, botUUID string) (sendlog.Record, error)
	}
	Recorder interface {
		Log(ctx context.Context, e sendlog.Entry)
	}
)

type Deps struct {
	Sender       Sender
	Accounts     AccountFinder
	History      History
	Recorder     Recorder
	Renderer     *templates.Renderer
	Links        links.Links
	SupportEmail string
	BaseDomain   string
	Logger       *slog.Logger
}

type Service struct {
	d       Deps
	threads Threader
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{d: d, threads: NewThreader(d.BaseDomain)}
}

// Reporter is the signed-in user filing a report.
type Reporter struct {
	AccountID int64
	Email     string
	FirstName string
}

type ReportRequest struct {
	BotUUID           string `json:"botUuid" validate:"required"`
	ChatID            string `json:"chatId" validate:"required"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

type ReplyRequest struct {
	BotUUID      string `json:"botUuid" validate:"required"`
	Resolved     bool   `json:"resolved,omitempty"`
	Reply        string `json:"reply" validate:"required"`
	AccountEmail string `json:"accountEmail" validate:"required,email"`
}

// Result identifies the sent message.
type Result struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
}

// Report confirms a new report to its author with support in CC and opens
// the bot's thread.
func (s *Service) Report(ctx context.Context, who Reporter, req ReportRequest) (Result, error) {
	if err := ValidateBotUUID(req.BotUUID); err != nil {
		return Result{}, err
	}

	data := templates.ErrorReportData{
		Base:              templates.NewBase(who.FirstName, s.d.SupportEmail, ""),
		BotUUID:           req.BotUUID,
		ChatID:            req.ChatID,
		AdditionalContext: req.AdditionalContext,
		ChatLink:          s.d.Links.Chat(req.ChatID),
		LogLink:           s.d.Links.BotLogs(req.BotUUID),
	}
	html, err := s.d.Renderer.Render(ctx, templates.ErrorReport, data)
	if err != nil {
		return Result{}, err
	}

	messageID := s.threads.NewMessageID(req.BotUUID)
	subject := Subject(req.BotUUID)
	id, err := s.d.Sender.Send(ctx, &mailer.Email{
		To:      []string{who.Email},
		CC:      s.cc(),
		Subject: subject,
		HTML:    html,
		Headers: map[string]string{
			"Message-ID": messageID,
			"References": References(nil, messageID),
		},
	})
	entry := s.entry(who.AccountID, subject, html, req.BotUUID, []string{messageID}, id)
	if err != nil {
		s.d.Recorder.Log(ctx, failed(entry, err))
		return Result{}, err
	}

	s.d.Recorder.Log(ctx, entry)
	s.d.Logger.InfoContext(ctx, "error report confirmation sent",
		slog.String("bot_uuid", req.BotUUID), slog.Int64("account_id", who.AccountID))
	return Result{ID: id, MessageID: messageID}, nil
}

// Reply sends the support reply to the account that filed the latest
// report for the bot, continuing its thread.
func (s *Service) Reply(ctx context.Context, req ReplyRequest) (Result, error) {
	if err := ValidateBotUUID(req.BotUUID); err != nil {
		return Result{}, err
	}

	prev, err := s.d.History.LatestErrorReport(ctx, req.BotUUID)
	if errors.Is(err, sendlog.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrThreadNotFound, req.BotUUID)
	}
	if err != nil {
		return Result{}, err
	}
	acct, err := s.d.Accounts.ByEmail(ctx, req.AccountEmail)
	if errors.Is(err, store.ErrAccountNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrAccountNotFound, req.AccountEmail)
	}
	if err != nil {
		return Result{}, err
	}

	messageID, err := s.threads.NextMessageID(req.BotUUID, prev.MessageIDs)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrThreadNotFound, req.BotUUID)
	}

	data := templates.ErrorReportReplyData{
		Base:     templates.NewBase(acct.FirstName, s.d.SupportEmail, ""),
		BotUUID:  req.BotUUID,
		Reply:    req.Reply,
		Resolved: req.Resolved,
		LogLink:  s.d.Links.BotLogs(req.BotUUID),
	}
	html, err := s.d.Renderer.Render(ctx, templates.ErrorReportReply, data)
	if err != nil {
		return Result{}, err
	}

	subject := "Re: " + Subject(req.BotUUID)
	id, err := s.d.Sender.Send(ctx, &mailer.Email{
		To:      []string{req.AccountEmail},
		CC:      s.cc(),
		Subject: subject,
		HTML:    html,
		Headers: map[string]string{
			"Message-ID": messageID,
			"References": References(prev.MessageIDs, messageID),
		},
	})
	if err != nil {
		// An undelivered id must not join the chain the next reply threads onto.
		s.d.Recorder.Log(ctx, failed(s.entry(acct.ID, subject, html, req.BotUUID, prev.MessageIDs, ""), err))
		return Result{}, err
	}

	thread := append(append([]string(nil), prev.MessageIDs...), messageID)
	s.d.Recorder.Log(ctx, s.entry(acct.ID, subject, html, req.BotUUID, thread, id))
	s.d.Logger.InfoContext(ctx, "error report reply sent",
		slog.String("bot_uuid", req.BotUUID), slog.Int("thread_length", len(thread)))
	return Result{ID: id, MessageID: messageID}, nil
}

func (s *Service) cc() []string {
	if s.d.SupportEmail == "" {
		return nil
	}
	return []string{s.d.SupportEmail}
}

func failed(e sendlog.Entry, err error) sendlog.Entry {
	e.Success = false
	e.ErrorMessage = err.Error()
	return e
}

func (s *Service) entry(accountID int64, subject, html, botUUID string, thread []string, providerID string) sendlog.Entry {
	meta := map[string]any{
		sendlog.MetaTemplate: html,
		sendlog.MetaBotUUID:  botUUID,
	}
	if providerID != "" {
		meta[sendlog.MetaResendID] = providerID
	}
	return sendlog.Entry{
		AccountID:   accountID,
		EmailType:   catalog.ErrorReport,
		Subject:     subject,
		TriggeredBy: cooldown.TriggeredBySystem,
		MessageIDs:  thread,
		Metadata:    meta,
		Success:     true,
	}
}
