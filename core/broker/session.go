package broker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/targetkit/targetkit/core/statestore"
	"github.com/targetkit/targetkit/pkg/logger"
)

// apiPrefix is the versioned path prefix fixed by the server.
const apiPrefix = "/ttb-v1/"

// validSessionStatus is the exact status text the server answers on
// validate_session when the cookies still authenticate.
const validSessionStatus = "You have a valid session"

type validity int8

const (
	validityUnknown validity = iota
	validityValid
	validityInvalid
)

// Session is a proxy for one remote target broker. All exported methods
// are safe for concurrent use; the cookie set is the only mutable state
// and is guarded by the session lock.
type Session struct {
	cfg     Config
	baseURL string
	client  *http.Client
	log     *slog.Logger

	mu      sync.Mutex
	cookies map[string]string
	valid   validity
}

// New creates a session for the broker at cfg.URL. No network traffic
// happens here; the first request decides whether the broker is
// reachable.
func New(cfg Config, opts ...Option) (*Session, error) {
	u, err := cfg.apply()
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		baseURL: strings.TrimRight(u.String(), "/") + apiPrefix,
		log:     slog.Default(),
		cookies: map[string]string{},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	switch {
	case cfg.InsecureTLS:
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	case cfg.CAPath != "":
		pem, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading CA bundle: %v", ErrInvalidConfig, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidConfig, cfg.CAPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}
	s.client = &http.Client{Transport: transport, Timeout: cfg.Timeout}

	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("broker"), logger.Broker(s.cfg.Aka))
	return s, nil
}

// URL returns the broker's base URL.
func (s *Session) URL() string { return s.cfg.URL }

// Aka returns the broker's short alias.
func (s *Session) Aka() string { return s.cfg.Aka }

func (s *Session) String() string { return s.cfg.URL }

// Cookies returns a copy of the current cookie set.
func (s *Session) Cookies() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cookies := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		cookies[k] = v
	}
	return cookies
}

// SetCookies replaces the cookie set, typically from persisted state.
func (s *Session) SetCookies(cookies map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = make(map[string]string, len(cookies))
	for k, v := range cookies {
		s.cookies[k] = v
	}
	s.valid = validityUnknown
}

// ClearState drops the cookie set so a later SaveState removes the
// persisted blob; this logs the user out from the client's standpoint.
func (s *Session) ClearState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = map[string]string{}
	s.valid = validityUnknown
}

// LoadState restores the cookie set persisted for this broker. A missing
// or corrupt blob leaves the session unauthenticated without error.
func (s *Session) LoadState(ctx context.Context, store statestore.Store) error {
	cookies, err := store.Load(ctx, s.cfg.URL)
	if err != nil {
		return err
	}
	if cookies != nil {
		s.SetCookies(cookies)
		s.log.Debug("state loaded", slog.Int("cookies", len(cookies)))
	}
	return nil
}

// SaveState persists the current cookie set; an empty set removes the
// blob.
func (s *Session) SaveState(ctx context.Context, store statestore.Store) error {
	return store.Save(ctx, s.cfg.URL, s.Cookies())
}

// mergeCookies folds response cookies into the session set, new values
// overwriting old by name. Older cookies (remember_token) are kept since
// the server expects them on future requests.
func (s *Session) mergeCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		s.cookies[c.Name] = c.Value
	}
}

// do issues one authenticated request and decodes the JSON response.
// Network failures wrap ErrUnreachable; non-2xx responses become
// *RemoteError with the body's "message" field as text.
func (s *Session) do(ctx context.Context, method, path string, form url.Values) (map[string]any, error) {
	endpoint := s.baseURL + strings.TrimPrefix(path, "/")

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for name, value := range s.Cookies() {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	s.log.Debug("request", slog.String("method", method), slog.String("url", endpoint))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	defer resp.Body.Close()

	s.mergeCookies(resp.Cookies())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, remoteError(resp.StatusCode, data)
	}

	var rdata map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rdata); err != nil {
			return nil, fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	if diagnostics, _ := rdata["diagnostics"].(string); diagnostics != "" {
		for _, line := range strings.Split(diagnostics, "\n") {
			s.log.Warn("diagnostics: " + line)
		}
	}
	return rdata, nil
}

// remoteError extracts the server's "message" field from an error
// response body, falling back to a generic text.
func remoteError(status int, body []byte) *RemoteError {
	var rdata map[string]any
	if err := json.Unmarshal(body, &rdata); err == nil {
		if message, ok := rdata["message"].(string); ok {
			return &RemoteError{StatusCode: status, Message: message}
		}
	}
	return &RemoteError{StatusCode: status}
}

// ListOptions control target listing.
type ListOptions struct {
	// IncludeDisabled also returns administratively disabled targets.
	IncludeDisabled bool
	// Projection restricts which attribute fields the broker reports,
	// cutting response size on large inventories. Empty means all.
	Projection []string
}

// ListTargets lists the targets this broker manages. Each returned
// descriptor carries FullID = alias + "/" + id.
func (s *Session) ListTargets(ctx context.Context, opts ListOptions) ([]*Target, error) {
	form := projectionForm(opts.Projection)
	r, err := s.do(ctx, http.MethodGet, "targets/", form)
	if err != nil {
		return nil, err
	}
	raw, _ := r["targets"].([]any)
	targets := make([]*Target, 0, len(raw))
	for _, entry := range raw {
		attrs, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		t := s.targetFromAttrs(attrs)
		if t == nil {
			continue
		}
		if t.Disabled() && !opts.IncludeDisabled {
			continue
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// GetTarget describes a single target by its broker-local id.
func (s *Session) GetTarget(ctx context.Context, id string, projection []string) (*Target, error) {
	form := projectionForm(projection)
	r, err := s.do(ctx, http.MethodGet, "targets/"+id, form)
	if err != nil {
		return nil, err
	}
	t := s.targetFromAttrs(r)
	if t == nil {
		return nil, &RemoteError{StatusCode: http.StatusNotFound,
			Message: fmt.Sprintf("%s/%s: unknown target", s.cfg.Aka, id)}
	}
	return t, nil
}

func (s *Session) targetFromAttrs(attrs map[string]any) *Target {
	id, _ := attrs["id"].(string)
	if id == "" {
		return nil
	}
	return &Target{
		ID:     id,
		Aka:    s.cfg.Aka,
		FullID: s.cfg.Aka + "/" + id,
		Attrs:  attrs,
	}
}

func projectionForm(projection []string) url.Values {
	if len(projection) == 0 {
		return nil
	}
	encoded, _ := json.Marshal(projection)
	return url.Values{"projection": {string(encoded)}}
}

// Login authenticates against the broker. A 404 answer means bad
// credentials: it is logged and reported as false without error, so the
// caller can move on to other brokers. Any other failure propagates.
func (s *Session) Login(ctx context.Context, user, password string) (bool, error) {
	form := url.Values{"email": {user}, "password": {password}}
	_, err := s.do(ctx, http.MethodPut, "login", form)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			s.log.Error("login failed", logger.Error(err))
			return false, nil
		}
		return false, err
	}
	s.mu.Lock()
	s.valid = validityValid
	s.mu.Unlock()
	return true, nil
}

// Logout invalidates the server-side session and drops the local
// cookies either way: even when the server is unreachable the user ends
// up logged out from the client's standpoint.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "logout", nil)
	s.ClearState()
	return err
}

// ValidateSession reports whether the persisted cookies still
// authenticate. The result is cached until force is set; one round trip
// at most per check.
func (s *Session) ValidateSession(ctx context.Context, force bool) bool {
	s.mu.Lock()
	cached := s.valid
	s.mu.Unlock()
	if cached != validityUnknown && !force {
		return cached == validityValid
	}

	valid := false
	if r, err := s.do(ctx, http.MethodGet, "validate_session", nil); err == nil {
		if status, _ := r["status"].(string); status == validSessionStatus {
			valid = true
		}
	}

	s.mu.Lock()
	if valid {
		s.valid = validityValid
	} else {
		s.valid = validityInvalid
	}
	s.mu.Unlock()
	return valid
}

// Acquire requests ownership of a target. With force it steals targets
// owned by someone else. A rejection (already owned) comes back as a
// *RemoteError; it is a normal outcome to report, not to retry.
func (s *Session) Acquire(ctx context.Context, id, ticket string, force bool) error {
	form := url.Values{
		"ticket": {ticket},
		"force":  {strconv.FormatBool(force)},
	}
	_, err := s.do(ctx, http.MethodPut, "targets/"+id+"/acquire", form)
	return err
}

// Release gives up ownership of a target.
func (s *Session) Release(ctx context.Context, id, ticket string, force bool) error {
	form := url.Values{
		"ticket": {ticket},
		"force":  {strconv.FormatBool(force)},
	}
	_, err := s.do(ctx, http.MethodPut, "targets/"+id+"/release", form)
	return err
}

// SetActive marks a target as active, refreshing its idle timer while
// long operations run.
func (s *Session) SetActive(ctx context.Context, id, ticket string) error {
	form := url.Values{"ticket": {ticket}}
	_, err := s.do(ctx, http.MethodPut, "targets/"+id+"/active", form)
	return err
}
