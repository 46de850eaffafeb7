package broker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetkit/targetkit/core/broker"
)

// fakeBroker is a minimal ttbd-style server for one test.
type fakeBroker struct {
	t       *testing.T
	mux     *http.ServeMux
	server  *httptest.Server
	session *broker.Session
}

func newFakeBroker(t *testing.T, aka string) *fakeBroker {
	t.Helper()
	fb := &fakeBroker{t: t, mux: http.NewServeMux()}
	fb.server = httptest.NewServer(fb.mux)
	t.Cleanup(fb.server.Close)

	s, err := broker.New(broker.Config{URL: fb.server.URL, Aka: aka})
	require.NoError(t, err)
	fb.session = s
	return fb
}

func (fb *fakeBroker) handle(path string, fn http.HandlerFunc) {
	fb.mux.HandleFunc("/ttb-v1/"+path, fn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListTargets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("targets/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"targets": []any{
				map[string]any{"id": "t1", "type": "qemu"},
				map[string]any{"id": "t2", "type": "mcu", "disabled": "maintenance"},
			},
		})
	})

	targets, err := fb.session.ListTargets(ctx, broker.ListOptions{})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "t1", targets[0].ID)
	assert.Equal(t, "serv/t1", targets[0].FullID)
	assert.Equal(t, "qemu", targets[0].Type())

	all, err := fb.session.ListTargets(ctx, broker.ListOptions{IncludeDisabled: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[1].Disabled())
}

func TestListTargetsProjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var gotProjection string
	fb := newFakeBroker(t, "serv")
	fb.handle("targets/", func(w http.ResponseWriter, r *http.Request) {
		body := make(map[string][]string)
		// GET carries the form in the body; net/http only parses the
		// query string for GET, so read it explicitly.
		if err := parseBodyForm(r, body); err == nil {
			if v, ok := body["projection"]; ok {
				gotProjection = v[0]
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"targets": []any{}})
	})

	_, err := fb.session.ListTargets(ctx, broker.ListOptions{Projection: []string{"id", "type"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["id","type"]`, gotProjection)
}

func TestRemoteErrorCarriesMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("targets/t1/acquire", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"message": "t1: user somebody@else owns it",
		})
	})

	err := fb.session.Acquire(ctx, "t1", "ticket-1", false)
	var re *broker.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
	assert.Contains(t, re.Message, "owns it")
	assert.NotErrorIs(t, err, broker.ErrUnreachable,
		"an acquire rejection is not a network failure")
}

func TestUnreachable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s, err := broker.New(broker.Config{URL: url, Aka: "gone"})
	require.NoError(t, err)

	_, err = s.ListTargets(ctx, broker.ListOptions{})
	assert.ErrorIs(t, err, broker.ErrUnreachable)
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "bad credentials"})
	})

	ok, err := fb.session.Login(ctx, "user", "wrong")
	require.NoError(t, err, "a 404 login rejection must not be an error")
	assert.False(t, ok)
}

func TestLoginServerError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "database down"})
	})

	ok, err := fb.session.Login(ctx, "user", "pass")
	assert.False(t, ok)
	var re *broker.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
}

func TestCookieMerge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "first"})
		http.SetCookie(w, &http.Cookie{Name: "remember_token", Value: "keepme"})
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	var gotCookies []*http.Cookie
	fb.handle("targets/", func(w http.ResponseWriter, r *http.Request) {
		gotCookies = r.Cookies()
		// Rotate the session cookie; remember_token must survive.
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "second"})
		writeJSON(w, http.StatusOK, map[string]any{"targets": []any{}})
	})

	ok, err := fb.session.Login(ctx, "user", "pass")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fb.session.ListTargets(ctx, broker.ListOptions{})
	require.NoError(t, err)
	require.Len(t, gotCookies, 2)

	cookies := fb.session.Cookies()
	assert.Equal(t, "second", cookies["session"])
	assert.Equal(t, "keepme", cookies["remember_token"])
}

func TestValidateSessionCachesResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int32
	fb := newFakeBroker(t, "serv")
	fb.handle("validate_session", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"status": "You have a valid session"})
	})

	assert.True(t, fb.session.ValidateSession(ctx, false))
	assert.True(t, fb.session.ValidateSession(ctx, false))
	assert.Equal(t, int32(1), calls.Load(), "cached result must not re-check")

	assert.True(t, fb.session.ValidateSession(ctx, true))
	assert.Equal(t, int32(2), calls.Load(), "force must re-check")
}

func TestValidateSessionInvalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("validate_session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "no session"})
	})

	assert.False(t, fb.session.ValidateSession(ctx, false))
}

func TestLogoutClearsCookies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	fb.session.SetCookies(map[string]string{"session": "x"})
	require.NoError(t, fb.session.Logout(ctx))
	assert.Empty(t, fb.session.Cookies())
}

func TestAkaDefaultsToHostLabel(t *testing.T) {
	t.Parallel()

	s, err := broker.New(broker.Config{URL: "https://ttbd-a.example.com:5000"})
	require.NoError(t, err)
	assert.Equal(t, "ttbd-a", s.Aka())
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := broker.New(broker.Config{})
	assert.ErrorIs(t, err, broker.ErrInvalidConfig)

	_, err = broker.New(broker.Config{URL: "ftp://example.com"})
	assert.ErrorIs(t, err, broker.ErrInvalidConfig)
}

func TestReleaseAndSetActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var released, activated bool
	fb := newFakeBroker(t, "serv")
	fb.handle("targets/t1/release", func(w http.ResponseWriter, r *http.Request) {
		released = true
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	fb.handle("targets/t1/active", func(w http.ResponseWriter, r *http.Request) {
		activated = true
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	require.NoError(t, fb.session.Release(ctx, "t1", "ticket-1", false))
	require.NoError(t, fb.session.SetActive(ctx, "t1", "ticket-1"))
	assert.True(t, released)
	assert.True(t, activated)
}

func TestGetTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fb := newFakeBroker(t, "serv")
	fb.handle("targets/t1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "t1", "type": "qemu", "owner": "me"})
	})

	tgt, err := fb.session.GetTarget(ctx, "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, "serv/t1", tgt.FullID)
	assert.Equal(t, "me", tgt.Owner())
}

// parseBodyForm decodes a form-encoded request body into dst, needed
// because net/http ignores GET bodies in ParseForm.
func parseBodyForm(r *http.Request, dst map[string][]string) error {
	if r.Body == nil {
		return errors.New("no body")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty body")
	}
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	for k, v := range values {
		dst[k] = v
	}
	return nil
}
