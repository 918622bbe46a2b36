// Command server runs the email service: the HTTP API, the provider webhook
// receiver and, when JOBS_ENABLED is set, the usage report scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/account"
	"github.com/Meeting-BaaS/emails/internal/billing"
	"github.com/Meeting-BaaS/emails/internal/broadcast"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/config"
	"github.com/Meeting-BaaS/emails/internal/content"
	"github.com/Meeting-BaaS/emails/internal/cooldown"
	"github.com/Meeting-BaaS/emails/internal/errorreport"
	"github.com/Meeting-BaaS/emails/internal/handlers"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/preferences"
	"github.com/Meeting-BaaS/emails/internal/reports"
	"github.com/Meeting-BaaS/emails/internal/sendlog"
	"github.com/Meeting-BaaS/emails/internal/session"
	"github.com/Meeting-BaaS/emails/internal/store"
	"github.com/Meeting-BaaS/emails/internal/templates"
	"github.com/Meeting-BaaS/emails/internal/usage"
	"github.com/Meeting-BaaS/emails/internal/webhook"
	"github.com/Meeting-BaaS/emails/middlewares"
	"github.com/Meeting-BaaS/emails/pkg/cache"
	"github.com/Meeting-BaaS/emails/pkg/db"
	"github.com/Meeting-BaaS/emails/pkg/job"
	"github.com/Meeting-BaaS/emails/pkg/logger"
	"github.com/Meeting-BaaS/emails/pkg/mailer"
	"github.com/Meeting-BaaS/emails/pkg/mailer/resend"
	"github.com/Meeting-BaaS/emails/pkg/metrics"
	"github.com/Meeting-BaaS/emails/pkg/redis"
)

const cachePrefix = "emails:"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Logger, cfg.Sentry, middlewares.RequestIDExtractor())
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if cfg.DB.AutoMigrate {
		if err := store.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
			pool.Close()
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var rdb goredis.UniversalClient
	if cfg.Redis.Enabled() {
		if rdb, err = redis.Open(ctx, cfg.Redis); err != nil {
			pool.Close()
			return err
		}
	}
	sessionCache, packsCache := caches(rdb, cfg)

	provider, err := resend.New(cfg.Resend, nil)
	if err != nil {
		return err
	}
	mail := mailer.New(provider, mailer.WithObserver(m))

	var (
		renderer = templates.NewRenderer(templates.Files())
		urls     = links.New(cfg.Links)
		bc       = catalog.NewBroadcastConfig(catalog.DefaultBroadcastContent())

		accounts = store.NewAccounts(pool)
		prefs    = preferences.NewStore(pool)
		contents = content.NewStore(pool)
		recorder = sendlog.NewLogger(pool, log)
		history  = sendlog.NewReader(pool)
		stats    = usage.NewAggregator(pool, log)

		cd = cooldown.NewChecker(cooldown.NewPGLogReader(pool), cfg.Cooldown,
			cooldown.WithLogger(log.With(slog.String("component", "cooldown"))),
			cooldown.WithErrorCounter(m),
		)
		packs = billing.NewService(billing.NewStripeCatalog(cfg.Billing.APIKey), cfg.Billing, packsCache)
	)

	accountSvc := account.NewService(account.Deps{
		Sender:       mail,
		Preferences:  prefs,
		Cooldown:     cd,
		Packs:        packs,
		Recorder:     recorder,
		Renderer:     renderer,
		Links:        urls,
		SupportEmail: cfg.SupportEmail,
		Logger:       log.With(slog.String("component", "account")),
	})
	resender := account.NewResender(mail, cd, history, recorder, bc, log.With(slog.String("component", "resend")))

	broadcasts := broadcast.NewService(broadcast.Deps{
		Contents:     contents,
		Accounts:     accounts,
		Sender:       mail,
		Recorder:     recorder,
		Renderer:     renderer,
		Config:       bc,
		Links:        urls,
		SupportEmail: cfg.SupportEmail,
		Logger:       log.With(slog.String("component", "broadcast")),
	})

	errorReports := errorreport.NewService(errorreport.Deps{
		Sender:       mail,
		Accounts:     accounts,
		History:      history,
		Recorder:     recorder,
		Renderer:     renderer,
		Links:        urls,
		SupportEmail: cfg.SupportEmail,
		BaseDomain:   cfg.Links.BaseDomain,
		Logger:       log.With(slog.String("component", "error_report")),
	})

	reportSender := reports.NewSender(cfg.Reports, reports.Deps{
		Subscribers:  prefs,
		Accounts:     accounts,
		Stats:        stats,
		Mailer:       mail,
		Recorder:     recorder,
		Renderer:     renderer,
		Links:        urls,
		SupportEmail: cfg.SupportEmail,
		BaseDomain:   cfg.Links.BaseDomain,
		Observer:     m,
		Logger:       log.With(slog.String("component", "reports")),
	})

	events := webhook.NewService(recorder, m, log.With(slog.String("component", "webhook")))
	sessions := session.NewClient(cfg.Session, sessionCache, m)

	verifier, err := webhookVerifier(cfg.WebhookSecret, log)
	if err != nil {
		return err
	}

	var jobs *job.Manager
	if cfg.Jobs.Enabled {
		if jobs, err = newJobManager(ctx, pool, cfg, reportSender, log); err != nil {
			return err
		}
	}

	apiKey := middlewares.APIKey(cfg.APIKey)
	sessionGuard := middlewares.Session(sessions)
	adminGuard := middlewares.Admin(cfg.Links.BaseDomain)

	checks := []internal.HealthOption{
		internal.WithReadinessCheck("postgres", db.Healthcheck(pool)),
	}
	if rdb != nil {
		checks = append(checks, internal.WithReadinessCheck("redis", redis.Healthcheck(rdb)))
	}
	if jobs != nil {
		checks = append(checks, internal.WithReadinessCheck("jobs", job.Healthcheck(jobs)))
	}

	app := internal.New(
		internal.WithLogger(log),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.RequestLogger(m),
			middlewares.Recover(),
			middlewares.Secure(),
		),
		internal.WithErrorHandler(handlers.ErrorHandler(cfg.IsDevelopment())),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithHealthChecks(checks...),
		internal.WithMount("/metrics", metrics.Handler(reg)),
		internal.WithJobs(jobs),
		internal.WithHandlers(
			handlers.NewAccount(accountSvc, apiKey),
			handlers.NewCron(reportSender, middlewares.CronSecret(cfg.CronSecret)),
			handlers.NewWebhook(events, middlewares.Svix(verifier)),
			handlers.NewPreferences(prefs, sessionGuard),
			handlers.NewUser(accountSvc, resender, sessionGuard),
			handlers.NewErrorReport(errorReports, sessionGuard, adminGuard),
			handlers.NewAdmin(handlers.AdminDeps{
				Subscribers: prefs,
				Contents:    contents,
				Broadcasts:  broadcasts,
				Logs:        history,
				Guards:      []internal.Middleware{sessionGuard, adminGuard},
			}),
		),
	)

	runOpts := []internal.RunOption{
		internal.Logger(log),
		internal.ShutdownHook(db.Shutdown(pool)),
	}
	if rdb != nil {
		runOpts = append(runOpts, internal.ShutdownHook(redis.Shutdown(rdb)))
	}
	runOpts = append(runOpts, internal.ShutdownHook(logger.Flush()))

	return app.Run(cfg.Addr(), runOpts...)
}

// caches picks the Redis backend when REDIS_URL is set, memory otherwise.
func caches(rdb goredis.UniversalClient, cfg config.Config) (cache.Cache[session.User], cache.Cache[[]billing.TokenPack]) {
	if rdb != nil {
		return cache.NewRedis[session.User](rdb, cachePrefix+"session:", cfg.Session.CacheTTL),
			cache.NewRedis[[]billing.TokenPack](rdb, cachePrefix+"packs:", cfg.Billing.CacheTTL)
	}
	return cache.NewMemory[session.User](cfg.Session.CacheTTL, cfg.Session.CacheTTL),
		cache.NewMemory[[]billing.TokenPack](cfg.Billing.CacheTTL, cfg.Billing.CacheTTL)
}

func newJobManager(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, rs *reports.Sender, log *slog.Logger) (*job.Manager, error) {
	if err := job.Migrate(ctx, pool, log); err != nil {
		return nil, err
	}
	opts := []job.Option{
		job.WithLogger(log.With(slog.String("component", "jobs"))),
		job.WithMaxWorkers(cfg.Jobs.MaxWorkers),
		job.WithMaxAttempts(cfg.Jobs.MaxAttempts),
		job.WithJobTimeout(cfg.Jobs.Timeout),
		job.WithTask[reports.SendPayload](reports.NewSendTask(rs)),
	}
	for _, s := range cfg.Reports.Schedules() {
		opts = append(opts, job.WithSchedule(reports.TaskName, s.Expr, s.Payload))
	}
	return job.NewManager(pool, opts...)
}

// webhookVerifier returns a verifier for WEBHOOK_SECRET. Without a secret
// every webhook is rejected.
func webhookVerifier(secret string, log *slog.Logger) (middlewares.WebhookVerifier, error) {
	if secret == "" {
		log.Warn("WEBHOOK_SECRET is not set, email status webhooks will be rejected")
		return rejectAll{}, nil
	}
	return svix.NewWebhook(secret)
}

type rejectAll struct{}

var errNoWebhookSecret = errors.New("webhook secret not configured")

func (rejectAll) Verify([]byte, http.Header) error { return errNoWebhookSecret }
