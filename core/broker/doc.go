// Package broker implements the client side of one remote target broker:
// an authenticated HTTP session against a ttbd-style server that manages
// hardware test targets.
//
// A Session owns the only mutable state shared with other components:
// its cookie set. Cookies are merged from every response by name under
// the session lock, so the cache fan-out can issue concurrent requests
// through the same session safely. Everything else on a Session is
// immutable after construction (URL, alias, TLS policy).
//
// # Errors
//
// Failures split into two kinds. A network-level failure (connection
// refused, timeout, TLS handshake) wraps ErrUnreachable. An HTTP-level
// failure (the broker answered with a non-2xx status) is a *RemoteError
// carrying the status code and the server's "message" field when the
// body provides one:
//
//	if errors.Is(err, broker.ErrUnreachable) { ... }
//	var re *broker.RemoteError
//	if errors.As(err, &re) && re.StatusCode == http.StatusConflict { ... }
//
// A rejected acquire is a *RemoteError, distinguishable from a network
// error; callers report it, they do not retry it.
//
// # Wire protocol
//
// The protocol is fixed by the server: a versioned path prefix
// ("/ttb-v1/"), form-encoded request bodies, JSON responses with
// optional "diagnostics" (logged as warnings) and "message" (used as
// error text) fields.
package broker
