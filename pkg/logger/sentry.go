package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config holds logger settings for command line tools.
type Config struct {
	Level             string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// SentryErrorsOnly stops warnings from being forwarded to Sentry.
	SentryErrorsOnly bool `env:"SENTRY_ERRORS_ONLY" envDefault:"false"`
}

// NewFromConfig creates a JSON logger writing to stderr, keeping stdout for
// command output. If a Sentry DSN is set, warnings and errors are forwarded
// to Sentry as well. Sentry init failures are logged and the logger falls
// back to stderr only.
func NewFromConfig(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	level := ParseLevel(cfg.Level)
	if cfg.SentryDSN == "" {
		return NewWithWriter(os.Stderr, level, extractors...)
	}

	stderr := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	all := append([]ContextExtractor{ContextAttrs}, extractors...)

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stderr).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(stderr, all...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.SentryErrorsOnly {
		logLevel = []slog.Level{slog.LevelError}
	}
	toSentry := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(fanout{stderr, toSentry}, all...))
}

// Flush waits for buffered Sentry events. It is a no-op when Sentry was
// never initialized.
func Flush() {
	if sentry.CurrentHub().Client() != nil {
		sentry.Flush(2 * time.Second)
	}
}

// fanout forwards records to every handler enabled for their level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
