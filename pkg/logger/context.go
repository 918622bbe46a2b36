package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one request-scoped attribute out of a context, such
// as the request id set by middlewares.RequestID.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds the extracted attributes to every record. Extractors
// run on each call because the values change per request.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

// WithExtractors wraps next so records logged with a context carry the
// extracted attributes. Nil extractors and empty string values are skipped.
func WithExtractors(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var live []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			live = append(live, ex)
		}
	}
	if len(live) == 0 {
		return next
	}
	return &contextHandler{Handler: next, extractors: live}
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok || (attr.Value.Kind() == slog.KindString && attr.Value.String() == "") {
			continue
		}
		rec.AddAttrs(attr)
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}

// Discard returns a logger that drops everything. Components use it when no
// logger was configured.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
