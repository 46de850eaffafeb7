package broker

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidConfig is returned when a session cannot be constructed
// from its configuration.
var ErrInvalidConfig = errors.New("invalid broker configuration")

// Config describes one remote broker endpoint.
type Config struct {
	// URL is the broker's base URL. Immutable after construction.
	URL string
	// Aka is the short alias used as the selection namespace prefix;
	// must be unique across all sessions registered in one cache.
	// Defaults to the first DNS label of the URL's hostname.
	Aka string
	// InsecureTLS disables certificate verification (self-signed labs).
	InsecureTLS bool
	// CAPath points to a PEM bundle to trust instead of the system
	// pool. Ignored when InsecureTLS is set.
	CAPath string
	// Timeout bounds each HTTP call. Target operations such as flashing
	// can be slow, hence the generous default.
	Timeout time.Duration
}

// defaultTimeout matches how long the slowest known target operation
// (image flashing) is allowed to take.
const defaultTimeout = 8 * time.Minute

func (c *Config) apply() (*url.URL, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if c.Aka == "" {
		c.Aka, _, _ = strings.Cut(u.Hostname(), ".")
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return u, nil
}

// Option configures a Session beyond its endpoint Config.
type Option func(*Session)

// WithLogger sets the logger used by the session. Defaults to
// slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHTTPClient replaces the HTTP client built from the TLS policy.
// The client's own timeout wins over Config.Timeout. Intended for tests
// and for callers that pool transports across sessions.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.client = client
		}
	}
}
