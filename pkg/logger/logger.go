package logger

import (
	"log/slog"
	"os"
)

const serviceName = "edutemp-payments"

var defaultLogger *slog.Logger

// Init picks the handler by environment: JSON at info level for
// production log shippers, text at debug level everywhere else. Every
// line carries the service attribute so payment logs stay filterable in
// a shared stream.
func Init(env string) {
	var handler slog.Handler

	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	defaultLogger = slog.New(handler).With("service", serviceName)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}
