package logger

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Config holds logger settings.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	// Redact lists attribute keys whose values are replaced with "[REDACTED]".
	Redact []string `env:"LOG_REDACT" envDefault:"authorization,cookie,x-api-key,svix-signature" envSeparator:","`
}

// New creates a stdout logger with optional context extractors.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(WithExtractors(newStdoutHandler(os.Stdout, cfg), extractors...))
}

// ParseLevel maps a level name to slog.Level. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newStdoutHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: redactAttr(cfg.Redact),
	}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

const redacted = "[REDACTED]"

// redactAttr returns a ReplaceAttr func hiding the values of sensitive keys.
func redactAttr(keys []string) func([]string, slog.Attr) slog.Attr {
	if len(keys) == 0 {
		return nil
	}
	lower := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if slices.Contains(lower, strings.ToLower(a.Key)) {
			return slog.String(a.Key, redacted)
		}
		return a
	}
}
