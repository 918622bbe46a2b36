// Package logger provides structured logging with context extraction,
// attribute redaction and optional Sentry integration.
//
// Loggers are built from a Config, usually parsed from the environment:
//
//	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "usage report sent", slog.Int64("account_id", id))
//
// Every attribute whose key appears in Config.Redact is written as
// "[REDACTED]". The defaults cover the authorization, cookie, x-api-key and
// svix-signature headers, which the request logger attaches by name.
//
// NewWithSentry adds a Sentry handler next to stdout. Errors become Sentry
// issues and warnings are stored as logs. With an empty DSN it behaves like New.
//
// A ContextExtractor pulls one attribute out of the context on every log call,
// which keeps request-scoped values such as the request id current.
package logger
