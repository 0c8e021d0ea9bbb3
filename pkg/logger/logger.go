package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/instafit/fieldops-backend/pkg/env"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
)

type Options struct {
	ServiceName string
	Level       zerolog.Level
	// WarnStack attaches a stack trace to warnings as well as errors.
	WarnStack bool
	Output    io.Writer
}

// Logger writes JSON lines enriched with whatever fields the request context
// has accumulated (request id, worker, booking, actor). Fields ride on the
// context through zerolog's own context helpers.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type requestIDKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if env.ConsoleLogs() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return &Logger{
		base: zerolog.New(out).Level(opts.Level).With().
			Timestamp().
			Str("service", opts.ServiceName).
			Logger(),
		warnStack: opts.WarnStack,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return New(Options{ServiceName: "nop", Level: zerolog.Disabled, Output: io.Discard})
}

// ParseLevel maps a level name to zerolog, falling back to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry := zerolog.Ctx(ctx); entry.GetLevel() != zerolog.Disabled {
			return entry
		}
	}
	return &l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := build(l.from(ctx).With()).Logger()
	return entry.WithContext(ctx)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithFields adds fields in key order so lines diff cleanly.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithRequestID tags log lines with the id and keeps it retrievable through
// RequestID so error envelopes can echo it.
func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = l.WithField(ctx, "request_id", requestID)
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithActor records the token subject, plus the display name when it differs.
func (l *Logger) WithActor(ctx context.Context, subject, name string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		c = c.Str("actor", subject)
		if name != "" && name != subject {
			c = c.Str("actor_name", name)
		}
		return c
	})
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) WithWorkerID(ctx context.Context, workerID string) context.Context {
	return l.WithField(ctx, "worker_id", workerID)
}

func (l *Logger) WithBookingID(ctx context.Context, bookingID int64) context.Context {
	return l.WithField(ctx, "booking_id", bookingID)
}

func (l *Logger) WithOrderNo(ctx context.Context, orderNo string) context.Context {
	return l.WithField(ctx, "order_no", orderNo)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.from(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error logs err with its application error code, when it has one, and a
// stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.from(ctx).Error()
	if err != nil {
		event = event.Err(err)
		if typed := pkgerrors.As(err); typed != nil {
			event = event.Str("error_code", string(typed.Code()))
		}
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
