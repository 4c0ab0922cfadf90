package logging

import (
	"context"
	"log/slog"
)

// Redaction replaces the value of any sensitive attribute.
const Redaction = "***"

// PIIFields lists attribute keys whose values must never reach log output.
var PIIFields = []string{"name", "email", "phone", "ssn", "password"}

// RedactingHandler wraps an slog.Handler and masks the values of sensitive
// attribute keys before the record is emitted. Keys are compared verbatim,
// groups included.
type RedactingHandler struct {
	inner  slog.Handler
	fields map[string]struct{}
}

// NewRedactingHandler builds a handler that redacts the given fields. With no
// fields it falls back to PIIFields.
func NewRedactingHandler(inner slog.Handler, fields ...string) *RedactingHandler {
	if len(fields) == 0 {
		fields = PIIFields
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &RedactingHandler{inner: inner, fields: set}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), fields: h.fields}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), fields: h.fields}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = h.redact(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	if _, ok := h.fields[a.Key]; ok {
		return slog.String(a.Key, Redaction)
	}
	return a
}
