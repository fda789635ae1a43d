package logger

import (
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Init installs the process-wide slog default.
// Development: text format at debug level. Otherwise JSON at info level.
// Errors are also sent to Sentry when a DSN is configured.
func Init(isDev bool, sentryDSN string) {
	level := slog.LevelInfo
	var base slog.Handler
	if isDev {
		level = slog.LevelDebug
		base = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	handlers := []slog.Handler{base}
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.New(base).Warn("sentry disabled", "error", err)
		}
	}

	handler := handlers[0]
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}

	slog.SetDefault(slog.New(handler))
}
