package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Broker creates an attribute for a broker alias.
func Broker(aka string) slog.Attr {
	if aka == "" {
		return slog.Attr{}
	}
	return slog.String("broker", aka)
}

// Target creates an attribute for a target identifier (id or fullid).
func Target(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("target", id)
}

// URL creates an attribute for a broker endpoint URL.
func URL(u string) slog.Attr {
	if u == "" {
		return slog.Attr{}
	}
	return slog.String("url", u)
}

// Status creates an attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
