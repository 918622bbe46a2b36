package account

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/cooldown"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

// History finds the newest successful send of a type. Broadcast types match
// any account.
type History interface {
	LatestByType(ctx context.Context, accountID int64, id catalog.EmailID) (sendlog.Record, error)
}

// User is the signed-in account asking for a resend.
type User struct {
	AccountID int64
	Email     string
	FirstName string
}

type ResendRequest struct {
	EmailID   catalog.EmailID   `json:"emailId" validate:"required"`
	Frequency catalog.Frequency `json:"frequency" validate:"required,oneof=Daily Weekly Monthly Never"`
}

// Resent describes a resend.
type Resent struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

// Resender replays the latest stored email of a type to the signed-in user,
// within the user resend limits.
type Resender struct {
	sender    Sender
	cooldown  Cooldown
	history   History
	recorder  Recorder
	broadcast catalog.BroadcastConfig
	log       *slog.Logger
}

func NewResender(sender Sender, cd Cooldown, history History, recorder Recorder, bc catalog.BroadcastConfig, log *slog.Logger) *Resender {
	if log == nil {
		log = slog.Default()
	}
	return &Resender{sender: sender, cooldown: cd, history: history, recorder: recorder, broadcast: bc, log: log}
}

// Resend sends the stored body again. The first name placeholder of
// broadcast bodies is replaced with the escaped first name of u.
func (r *Resender) Resend(ctx context.Context, u User, req ResendRequest) (Resent, error) {
	if !req.EmailID.Valid() {
		return Resent{}, fmt.Errorf("%w: %s", ErrNotResendable, req.EmailID)
	}

	d := r.cooldown.Check(ctx, u.AccountID, req.EmailID)
	if !d.CanSend {
		var next CooldownError
		if d.NextAvailableAt != nil {
			next.NextAvailableAt = *d.NextAvailableAt
		}
		r.log.DebugContext(ctx, "resend cooling down",
			slog.Int64("account_id", u.AccountID), slog.String("email_type", string(req.EmailID)))
		return Resent{}, &next
	}

	prev, err := r.history.LatestByType(ctx, u.AccountID, req.EmailID)
	if errors.Is(err, sendlog.ErrNotFound) {
		return Resent{}, ErrNoPreviousSend
	}
	if err != nil {
		return Resent{}, err
	}
	if prev.Template == "" {
		return Resent{}, ErrNoStoredBody
	}

	subject := prev.Subject
	if subject == "" {
		if bc, ok := r.broadcast.Get(req.EmailID); ok {
			subject = bc.Subject
		}
	}

	name := u.FirstName
	if name == "" {
		name = templates.DefaultFirstName
	}
	body := strings.ReplaceAll(prev.Template, templates.FirstNamePlaceholder, html.EscapeString(name))

	id, err := r.sender.Send(ctx, &mailer.Email{
		To:      []string{u.Email},
		Subject: subject,
		HTML:    body,
		Tags:    mailer.Tags{"email_type": string(req.EmailID)},
	})

	entry := sendlog.Entry{
		AccountID:   u.AccountID,
		EmailType:   req.EmailID,
		Subject:     subject,
		TriggeredBy: cooldown.TriggeredByUser,
		Metadata:    map[string]any{sendlog.MetaTemplate: prev.Template},
		Success:     err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
		r.recorder.Log(ctx, entry)
		return Resent{}, err
	}
	entry.Metadata[sendlog.MetaResendID] = id
	r.recorder.Log(ctx, entry)

	r.log.InfoContext(ctx, "email resent",
		slog.Int64("account_id", u.AccountID), slog.String("email_type", string(req.EmailID)))
	return Resent{ID: id, Subject: subject}, nil
}
