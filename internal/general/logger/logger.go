package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes one structured line per event. Every line carries service,
// hostname, action and, when present in ctx, request_id and order_id.
type Logger struct {
	log zerolog.Logger
}

// New creates a structured logger for the given service. Output is JSON on
// stdout, or a human-readable console stream when APP_ENV=dev.
func New(service string) *Logger {
	var out io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(service, out)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(service string, w io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	z := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hn).
		Logger()
	return &Logger{log: z}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{log: zerolog.Nop()}
}

func (l *Logger) event(ctx context.Context, ev *zerolog.Event, action string, details any) *zerolog.Event {
	ev = ev.Str("action", safeAction(action))
	if id := requestID(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}
	if id := orderID(ctx); id != "" {
		ev = ev.Str("order_id", id)
	}
	if details != nil {
		ev = ev.Interface("details", details)
	}
	return ev
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.event(ctx, l.log.Debug(), action, details).Msg(strings.TrimSpace(msg))
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.event(ctx, l.log.Info(), action, details).Msg(strings.TrimSpace(msg))
}

// Warn writes a WARN line with optional details.
func (l *Logger) Warn(ctx context.Context, action, msg string, details any) {
	l.event(ctx, l.log.Warn(), action, details).Msg(strings.TrimSpace(msg))
}

// Error writes an ERROR line and attaches an error stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.event(ctx, l.log.Error(), action, details).
		Str("error", strings.TrimSpace(err.Error())).
		Str("stack", string(debug.Stack())).
		Msg(strings.TrimSpace(msg))
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "geodispatch_request_id"
	ctxKeyOrderID   ctxKey = "geodispatch_order_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithOrderID returns a new context carrying order_id.
func (l *Logger) WithOrderID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyOrderID, id)
}

// RequestID extracts request_id from ctx (if any).
func RequestID(ctx context.Context) string {
	return requestID(ctx)
}

func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func orderID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyOrderID).(string); ok {
		return s
	}
	return ""
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
