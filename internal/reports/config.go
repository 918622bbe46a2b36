package reports

import "time"

// Config controls the usage report runs.
type Config struct {
	// Enabled gates every run, whether triggered over HTTP or by the scheduler.
	Enabled           bool          `env:"TRIGGER_USAGE_REPORTS_CRON_JOBS" envDefault:"false"`
	BatchDelay        time.Duration `env:"EMAIL_BATCH_DELAY" envDefault:"1s"`
	RecipientSuffix   string        `env:"USAGE_REPORTS_RECIPIENT_SUFFIX"`
	InternalFrequency string        `env:"INTERNAL_USAGE_REPORT_FREQUENCY" envDefault:"Daily"`

	DailyCron    string `env:"USAGE_REPORTS_DAILY_CRON" envDefault:"0 7 * * *"`
	WeeklyCron   string `env:"USAGE_REPORTS_WEEKLY_CRON" envDefault:"0 7 * * 0"`
	MonthlyCron  string `env:"USAGE_REPORTS_MONTHLY_CRON" envDefault:"0 7 1 * *"`
	InternalCron string `env:"INTERNAL_USAGE_REPORT_CRON" envDefault:"30 7 * * *"`
}
