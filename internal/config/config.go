// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Meeting-BaaS/emails/internal/billing"
	"github.com/Meeting-BaaS/emails/internal/cooldown"
	"github.com/Meeting-BaaS/emails/internal/links"
	"github.com/Meeting-BaaS/emails/internal/reports"
	"github.com/Meeting-BaaS/emails/internal/session"
	"github.com/Meeting-BaaS/emails/pkg/db"
	"github.com/Meeting-BaaS/emails/pkg/job"
	"github.com/Meeting-BaaS/emails/pkg/logger"
	"github.com/Meeting-BaaS/emails/pkg/mailer/resend"
	"github.com/Meeting-BaaS/emails/pkg/redis"
)

// Development is the APP_ENV value that exposes internal error details.
const Development = "development"

// Config is the full service configuration.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"production"`
	Port string `env:"PORT" envDefault:"3001"`

	APIKey        string `env:"EMAIL_SERVICE_API_KEY,required"`
	CronSecret    string `env:"CRON_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	SupportEmail  string `env:"NEXT_PUBLIC_SUPPORT_EMAIL" envDefault:"support@meetingbaas.com"`

	DB       db.Config
	Redis    redis.Config
	Jobs     job.Config
	Resend   resend.Config
	Logger   logger.Config
	Sentry   logger.SentryConfig
	Cooldown cooldown.Config
	Reports  reports.Config
	Billing  billing.Config
	Links    links.Config
	Session  session.Config
}

// Load reads an optional .env file, then parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Cooldown.WindowHours <= 0 {
		errs = append(errs, errors.New("RESENDS_ALLOWED_PERIOD must be positive"))
	}
	if c.Cooldown.MaxAttempts <= 0 {
		errs = append(errs, errors.New("NUMBER_OF_RESENDS_ALLOWED must be positive"))
	}
	if c.Reports.BatchDelay < 0 {
		errs = append(errs, errors.New("EMAIL_BATCH_DELAY must not be negative"))
	}
	if !strings.Contains(c.SupportEmail, "@") {
		errs = append(errs, errors.New("NEXT_PUBLIC_SUPPORT_EMAIL must be an email address"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether error responses may carry internal details.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, Development)
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
