// Package logger configures slog and carries structured log fields and
// trace spans through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Env         string
	ServiceName string
	// OTel routes records to the global OTel logger provider.
	OTel bool
}

// Setup installs the default slog logger: colored text in development, JSON
// in production, and the OTel bridge when telemetry is exported.
func Setup(opts Options) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, opts)))
}

func NewHandler(w io.Writer, opts Options) slog.Handler {
	level := slog.LevelInfo
	if opts.Env != "production" {
		level = slog.LevelDebug
	}

	switch {
	case opts.Env == "production" && opts.OTel:
		return otelslog.NewHandler(opts.ServiceName, otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	case opts.Env == "production":
		return NewTraceHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return NewTraceHandler(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC1123Z,
		}))
	}
}

// TraceHandler adds trace ids and context log fields to every record.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	fields := GetLogFields(ctx)
	if fields.EventID != nil {
		r.AddAttrs(slog.String("event_id", *fields.EventID))
	}
	if fields.EntrantID != nil {
		r.AddAttrs(slog.String("entrant_id", *fields.EntrantID))
	}
	if fields.UID != nil {
		r.AddAttrs(slog.String("uid", *fields.UID))
	}
	if fields.MessageID != nil {
		r.AddAttrs(slog.String("message_id", *fields.MessageID))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
