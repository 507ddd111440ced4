package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogctz/internal/config"
	apierrors "ogctz/internal/errors"
	"ogctz/internal/shared/testutil"
)

func newTestManager(t *testing.T, secret string) *Manager {
	t.Helper()
	cfg := config.Default().Session
	cfg.SecretKey = secret
	m, err := NewManager(cfg, NewMemoryStore(time.Minute), testutil.DiscardLogger())
	require.NoError(t, err)
	return m
}

// serve runs one request through the middleware and returns the session ID
// seen by the handler plus the recorder.
func serve(m *Manager, cookie *http.Cookie) (string, *httptest.ResponseRecorder) {
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return seen, w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == config.DefaultCookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager(config.SessionConfig{CookieName: "x"}, NewMemoryStore(time.Minute), testutil.DiscardLogger())
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeConfig))
}

func TestMiddleware_IssuesCookie(t *testing.T) {
	m := newTestManager(t, "secret-one")

	id, w := serve(m, nil)
	require.NotEmpty(t, id)

	c := sessionCookie(t, w)
	assert.NotContains(t, c.Value, id)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(config.DefaultCookieMaxAge.Seconds()), c.MaxAge)

	var decoded string
	require.NoError(t, m.codec.Decode(config.DefaultCookieName, c.Value, &decoded))
	assert.Equal(t, id, decoded)
}

func TestMiddleware_ReusesValidCookie(t *testing.T) {
	m := newTestManager(t, "secret-one")

	id, w := serve(m, nil)
	again, w2 := serve(m, sessionCookie(t, w))

	assert.Equal(t, id, again)
	assert.Empty(t, w2.Result().Cookies())
}

func TestMiddleware_RejectsTamperedCookie(t *testing.T) {
	m := newTestManager(t, "secret-one")
	id, w := serve(m, nil)
	valid := sessionCookie(t, w)

	flipped := []byte(valid.Value)
	mid := len(flipped) / 2
	if flipped[mid] == 'A' {
		flipped[mid] = 'B'
	} else {
		flipped[mid] = 'A'
	}

	notUUID, err := m.codec.Encode(config.DefaultCookieName, "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"raw id", id},
		{"flipped byte", string(flipped)},
		{"not base64", "!!!"},
		{"signed non-uuid", notUUID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w := serve(m, &http.Cookie{Name: config.DefaultCookieName, Value: tt.value})
			assert.NotEqual(t, id, got)
			assert.NotEmpty(t, got)
			sessionCookie(t, w)
		})
	}
}

func TestMiddleware_SessionCookieWithoutMaxAge(t *testing.T) {
	cfg := config.Default().Session
	cfg.CookieMaxAge = 0
	m, err := NewManager(cfg, NewMemoryStore(time.Minute), testutil.DiscardLogger())
	require.NoError(t, err)

	id, w := serve(m, nil)
	c := sessionCookie(t, w)
	assert.Zero(t, c.MaxAge)

	again, _ := serve(m, c)
	assert.Equal(t, id, again)
}

func TestMiddleware_OtherSecretRejected(t *testing.T) {
	_, w := serve(newTestManager(t, "secret-one"), nil)
	cookie := sessionCookie(t, w)

	other := newTestManager(t, "secret-two")
	_, w2 := serve(other, cookie)
	assert.NotEmpty(t, w2.Result().Cookies())
}

func TestManager_FlashRoundTrip(t *testing.T) {
	m := newTestManager(t, "secret")
	ctx := WithID(context.Background(), "session-a")

	require.NoError(t, m.SetFlash(ctx, Flash{Text: "Thanks!", Category: CategorySuccess}))

	got := m.TakeFlash(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "Thanks!", got.Text)
	assert.Nil(t, m.TakeFlash(ctx))
	assert.Nil(t, m.TakeFlash(WithID(context.Background(), "session-b")))
}

func TestManager_NoSession(t *testing.T) {
	m := newTestManager(t, "secret")

	err := m.SetFlash(context.Background(), Flash{Text: "lost"})
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeSession))
	assert.Nil(t, m.TakeFlash(context.Background()))
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, Flash) error { return errors.New("store down") }
func (failingStore) Take(context.Context, string) (*Flash, error) {
	return nil, errors.New("store down")
}

func TestManager_StoreFailures(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	m, err := NewManager(config.Default().Session, failingStore{}, logger)
	require.NoError(t, err)

	ctx := WithID(context.Background(), "s")
	err = m.SetFlash(ctx, Flash{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")

	assert.Nil(t, m.TakeFlash(ctx))
	assert.True(t, logs.ContainsMessage("flash lookup failed"))
}
