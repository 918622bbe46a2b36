// Package reports sends the periodic usage report emails: one per
// subscribed account, and the company-wide report to internal addresses.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/preferences"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/store"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/internal/usage"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

// BatchSize is the number of emails per provider call.
const BatchSize = 80

// triggered_by values of report log rows.
const (
	TriggeredByCron         = "usage-reports-cron"
	TriggeredByInternalCron = "internal-usage-reports-cron"
)

// State is where a run ended.
type State string

const (
	StateDisabled      State = "disabled"
	StateSkipped       State = "skipped"
	StateNoSubscribers State = "no_subscribers"
	StateNoStats       State = "no_stats"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// Result describes a finished run.
type Result struct {
	State      State `json:"state"`
	Recipients int   `json:"recipients"`
	Sent       int   `json:"sent"`
	Batches    int   `json:"batches"`
}

// Message is the human readable outcome used in HTTP responses.
func (r Result) Message() string {
	switch r.State {
	case StateDisabled:
		return "Usage reports cron job is disabled"
	case StateSkipped:
		return "Frequency is Never, cron job is not triggered"
	case StateNoSubscribers:
		return "No subscribers found"
	case StateNoStats:
		return "No stats found"
	case StateFailed:
		return "Failed to complete usage reports cron job"
	default:
		return "Usage reports cron job completed successfully"
	}
}

var ErrBatchFailed = errors.New("reports: batch send failed")

type (
	SubscriberSource interface {
		Subscribers(ctx context.Context, id catalog.EmailID, f catalog.Frequency, emailSuffix string) ([]preferences.Subscriber, error)
	}
	AccountSource interface {
		WithDomain(ctx context.Context, domain string) ([]store.Account, error)
	}
	StatsSource interface {
		Stats(ctx context.Context, w usage.Window, accountIDs []int64) (map[int64]usage.Stats, error)
		AllAccounts(ctx context.Context, w usage.Window) (usage.Stats, bool, error)
	}
	BatchSender interface {
		SendBatch(ctx context.Context, emails []*mailer.Email) ([]string, error)
	}
	Recorder interface {
		LogBatch(ctx context.Context, ds []sendlog.Delivery)
	}
	Observer interface {
		ReportRun(frequency, state string)
	}
)

// Deps groups the collaborators of a Sender.
type Deps struct {
	Subscribers  SubscriberSource
	Accounts     AccountSource
	Stats        StatsSource
	Mailer       BatchSender
	Recorder     Recorder
	Renderer     *templates.Renderer
	Links        links.Links
	SupportEmail string
	BaseDomain   string
	Observer     Observer
	Logger       *slog.Logger
	Now          func() time.Time
}

// Sender runs usage report sends.
type Sender struct {
	d   Deps
	cfg Config
}

func NewSender(cfg Config, d Deps) *Sender {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Sender{d: d, cfg: cfg}
}

// outgoing is a rendered email with the log entry written once it is sent.
type outgoing struct {
	email *mailer.Email
	entry sendlog.Entry
}

// Send emails every subscriber of usage-reports at frequency f the stats of
// the window before now.
func (s *Sender) Send(ctx context.Context, f catalog.Frequency) (res Result, err error) {
	log := s.d.Logger.With(slog.String("frequency", string(f)))
	defer func() { s.observe(f, res.State) }()

	if !s.cfg.Enabled {
		log.InfoContext(ctx, "usage reports cron job is disabled")
		return Result{State: StateDisabled}, nil
	}
	w, err := usage.WindowFor(f, s.d.Now())
	if errors.Is(err, usage.ErrNoWindow) {
		log.InfoContext(ctx, "frequency has no report window, skipping")
		return Result{State: StateSkipped}, nil
	}
	if err != nil {
		return Result{State: StateFailed}, err
	}

	log.InfoContext(ctx, "initializing usage reports", slog.Time("start", w.Start), slog.Time("end", w.End))
	subs, err := s.d.Subscribers.Subscribers(ctx, catalog.UsageReports, f, s.cfg.RecipientSuffix)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	log.InfoContext(ctx, "resolved subscribers", slog.Int("subscribers", len(subs)))
	if len(subs) == 0 {
		return Result{State: StateNoSubscribers}, nil
	}

	ids := make([]int64, len(subs))
	for i, sub := range subs {
		ids[i] = sub.AccountID
	}
	stats, err := s.d.Stats.Stats(ctx, w, ids)
	if err != nil {
		return Result{State: StateFailed, Recipients: len(subs)}, err
	}
	log.InfoContext(ctx, "aggregated stats", slog.Int("accounts_with_stats", len(stats)))

	tmpl, err := s.d.Renderer.Compose(ctx, templates.UsageReport)
	if err != nil {
		return Result{State: StateFailed, Recipients: len(subs)}, err
	}

	subject := usage.Subject(f, w)
	unsubscribe := s.d.Links.Unsubscribe(catalog.UsageReports)
	var out []outgoing
	for _, sub := range subs {
		st, ok := stats[sub.AccountID]
		if !ok {
			log.DebugContext(ctx, "no stats for subscriber, skipping", slog.Int64("account_id", sub.AccountID))
			continue
		}
		data := s.reportData(st, f, w, templates.NewBase(sub.FirstName, s.d.SupportEmail, unsubscribe))
		html, err := tmpl.Render(data)
		if err != nil {
			return Result{State: StateFailed, Recipients: len(subs)}, err
		}
		out = append(out, outgoing{
			email: &mailer.Email{To: []string{sub.Email}, Subject: subject, HTML: html},
			entry: sendlog.Entry{
				AccountID:   sub.AccountID,
				EmailType:   catalog.UsageReports,
				Subject:     subject,
				TriggeredBy: TriggeredByCron,
				Metadata:    map[string]any{sendlog.MetaTemplate: html},
				Success:     true,
			},
		})
	}
	if len(out) == 0 {
		log.InfoContext(ctx, "no subscriber has stats, nothing to send")
		return Result{State: StateNoStats, Recipients: len(subs)}, nil
	}

	res, err = s.deliver(ctx, log, out)
	res.Recipients = len(subs)
	return res, err
}

// SendInternal emails the all-accounts report to every internal address.
func (s *Sender) SendInternal(ctx context.Context) (res Result, err error) {
	f, err := catalog.ParseFrequency(s.cfg.InternalFrequency)
	if err != nil || !f.Periodic() {
		f = catalog.Daily
	}
	log := s.d.Logger.With(slog.String("frequency", string(f)), slog.Bool("internal", true))
	defer func() { s.observe("internal-"+f, res.State) }()

	if !s.cfg.Enabled {
		log.InfoContext(ctx, "usage reports cron job is disabled")
		return Result{State: StateDisabled}, nil
	}
	w, err := usage.WindowFor(f, s.d.Now())
	if err != nil {
		return Result{State: StateFailed}, err
	}

	log.InfoContext(ctx, "initializing internal usage report", slog.Time("start", w.Start), slog.Time("end", w.End))
	users, err := s.d.Accounts.WithDomain(ctx, s.d.BaseDomain)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	log.InfoContext(ctx, "resolved internal recipients", slog.Int("recipients", len(users)))
	if len(users) == 0 {
		return Result{State: StateNoSubscribers}, nil
	}

	stats, ok, err := s.d.Stats.AllAccounts(ctx, w)
	if err != nil {
		return Result{State: StateFailed, Recipients: len(users)}, err
	}
	if !ok {
		log.InfoContext(ctx, "no stats found, skipping")
		return Result{State: StateNoStats, Recipients: len(users)}, nil
	}

	tmpl, err := s.d.Renderer.Compose(ctx, templates.UsageReport)
	if err != nil {
		return Result{State: StateFailed, Recipients: len(users)}, err
	}

	subject := usage.InternalSubject(w)
	out := make([]outgoing, 0, len(users))
	for _, u := range users {
		base := templates.NewBase(u.FirstName, s.d.SupportEmail, "")
		base.HideUnsubscribeLink = true
		data := s.reportData(stats, f, w, base)
		data.InternalReport = true
		html, err := tmpl.Render(data)
		if err != nil {
			return Result{State: StateFailed, Recipients: len(users)}, err
		}
		out = append(out, outgoing{
			email: &mailer.Email{To: []string{u.Email}, Subject: subject, HTML: html},
			entry: sendlog.Entry{
				AccountID:   u.ID,
				EmailType:   catalog.UsageReports,
				Subject:     subject,
				TriggeredBy: TriggeredByInternalCron,
				Metadata:    map[string]any{sendlog.MetaTemplate: html},
				Success:     true,
			},
		})
	}

	res, err = s.deliver(ctx, log, out)
	res.Recipients = len(users)
	return res, err
}

// deliver sends out in chunks of BatchSize, pacing calls by the configured
// delay. A failed batch stops the run. Batches already sent are logged, and
// so is the failed one with success=false.
func (s *Sender) deliver(ctx context.Context, log *slog.Logger, out []outgoing) (Result, error) {
	limit := rate.Inf
	if s.cfg.BatchDelay > 0 {
		limit = rate.Every(s.cfg.BatchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	batches := chunk(out, BatchSize)
	log.InfoContext(ctx, "sending batches", slog.Int("batches", len(batches)), slog.Int("emails", len(out)))

	var (
		deliveries []sendlog.Delivery
		res        = Result{State: StateCompleted}
		failure    error
	)
	for i, batch := range batches {
		if err := limiter.Wait(ctx); err != nil {
			failure = err
			break
		}
		emails := make([]*mailer.Email, len(batch))
		entries := make([]sendlog.Entry, len(batch))
		for j, o := range batch {
			emails[j], entries[j] = o.email, o.entry
		}

		ids, err := s.d.Mailer.SendBatch(ctx, emails)
		if err != nil {
			deliveries = append(deliveries, sendlog.Failed(entries, err)...)
			failure = fmt.Errorf("%w: batch %d of %d: %w", ErrBatchFailed, i+1, len(batches), err)
			break
		}
		paired, err := sendlog.Pair(entries, ids)
		if err != nil {
			log.ErrorContext(ctx, "failed to pair batch ids, logging without provider ids",
				slog.Int("batch", i+1), slog.String("error", err.Error()))
			paired = sendlog.Unpaired(entries)
		}
		deliveries = append(deliveries, paired...)
		res.Batches++
		res.Sent += len(batch)
		log.InfoContext(ctx, "batch sent", slog.Int("batch", i+1), slog.Int("of", len(batches)))
	}

	s.d.Recorder.LogBatch(ctx, deliveries)

	if failure != nil {
		res.State = StateFailed
		log.ErrorContext(ctx, "usage reports run failed",
			slog.Int("sent", res.Sent), slog.String("error", failure.Error()))
		return res, failure
	}
	log.InfoContext(ctx, "usage reports run completed", slog.Int("sent", res.Sent))
	return res, nil
}

func (s *Sender) reportData(st usage.Stats, f catalog.Frequency, w usage.Window, base templates.Base) templates.UsageReportData {
	row := func(name string, p usage.Platform) templates.PlatformRow {
		c := st.Platforms[p]
		return templates.PlatformRow{
			Name:       name,
			Count:      c.Value,
			Percentage: usage.FormatNumber(usage.Share(c.Value, st.TotalBots)),
			Success:    usage.FormatNumber(usage.Share(c.Success, st.TotalBots)),
		}
	}
	return templates.UsageReportData{
		Base:           base,
		DurationString: usage.DurationString(f, w),
		TotalBots:      st.TotalBots,
		TotalHours:     usage.FormatNumber(st.Hours.Recording),
		TotalTokens:    usage.FormatNumber(st.Tokens.Recording),
		ErrorRate:      usage.FormatNumber(st.ErrorRate * 100),
		AvgLength:      usage.FormatNumber(st.AvgLength),
		Platforms: []templates.PlatformRow{
			row("Google Meet", usage.GoogleMeet),
			row("Zoom", usage.Zoom),
			row("Microsoft Teams", usage.Teams),
		},
		RecordingHours:      usage.FormatNumber(st.Hours.Recording),
		TranscriptionHours:  usage.FormatNumber(st.Hours.Transcription),
		RecordingTokens:     usage.FormatNumber(st.Tokens.Recording),
		TranscriptionTokens: usage.FormatNumber(st.Tokens.Transcription),
		AnalyticsLink:       s.d.Links.Analytics,
		UsageLink:           s.d.Links.Usage,
	}
}

func (s *Sender) observe(f catalog.Frequency, state State) {
	if s.d.Observer != nil {
		s.d.Observer.ReportRun(string(f), string(state))
	}
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
