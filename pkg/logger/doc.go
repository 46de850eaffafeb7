// Package logger provides slog attribute helpers for the broker client.
//
// The helpers follow the empty-Attr pattern: passing a nil error or empty
// string yields an empty slog.Attr, which slog drops silently, so call
// sites never need nil checks:
//
//	log.Error("refresh failed", logger.Broker(aka), logger.Error(err))
//
// Attribute keys are stable ("broker", "target", "url", ...) so log
// pipelines can filter on them.
package logger
