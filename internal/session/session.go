package session

import (
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"

	"ogctz/internal/config"
	apierrors "ogctz/internal/errors"
	"ogctz/internal/infrastructure"
)

const (
	keyInfo = "ogctz session cookie v1"

	// hashKeySize is the HMAC-SHA256 key length securecookie recommends
	hashKeySize = 64
)

type ctxKey struct{}

// Manager issues signed session cookies and routes flash messages to the
// store slot of the current session.
type Manager struct {
	store      FlashStore
	codec      *securecookie.SecureCookie
	cookieName string
	secure     bool
	maxAge     int
	logger     *slog.Logger
}

// NewManager derives the cookie hash key from the configured secret
func NewManager(cfg config.SessionConfig, store FlashStore, logger *slog.Logger) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, apierrors.NewConfigError("session secret is empty", nil)
	}

	hashKey := make([]byte, hashKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cfg.SecretKey), nil, []byte(keyInfo)), hashKey); err != nil {
		return nil, apierrors.NewConfigError("derive session key", err)
	}

	maxAge := int(cfg.CookieMaxAge.Seconds())
	codec := securecookie.New(hashKey, nil).MaxAge(maxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		store:      store,
		codec:      codec,
		cookieName: cfg.CookieName,
		secure:     cfg.CookieSecure,
		maxAge:     maxAge,
		logger:     infrastructure.WithComponent(logger, "session"),
	}, nil
}

// Middleware attaches a session ID to every request, issuing a new cookie
// when the request has none or it does not decode.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.readCookie(r)
		if !ok {
			id = uuid.New().String()
			if err := m.writeCookie(w, id); err != nil {
				infrastructure.WithError(m.logger, err).ErrorContext(r.Context(), "session cookie not issued")
			}
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// WithID returns a context carrying the session ID
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns the session ID set by Middleware
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// SetFlash queues a flash for the next page the session renders
func (m *Manager) SetFlash(ctx context.Context, flash Flash) error {
	id, ok := IDFromContext(ctx)
	if !ok {
		return apierrors.NewSessionError("no session in context", nil)
	}
	if err := m.store.Set(ctx, id, flash); err != nil {
		return apierrors.NewSessionError("store flash", err)
	}
	return nil
}

// TakeFlash returns and clears the pending flash. Store failures are
// logged and reported as no flash.
func (m *Manager) TakeFlash(ctx context.Context) *Flash {
	id, ok := IDFromContext(ctx)
	if !ok {
		return nil
	}

	flash, err := m.store.Take(ctx, id)
	if err != nil {
		infrastructure.WithError(m.logger, err).WarnContext(ctx, "flash lookup failed")
		return nil
	}
	return flash
}

func (m *Manager) readCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}

	var id string
	if err := m.codec.Decode(m.cookieName, c.Value, &id); err != nil {
		infrastructure.WithError(m.logger, err).DebugContext(r.Context(), "session cookie rejected")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		m.logger.DebugContext(r.Context(), "session cookie rejected", slog.String("reason", "malformed id"))
		return "", false
	}
	return id, true
}

func (m *Manager) writeCookie(w http.ResponseWriter, id string) error {
	value, err := m.codec.Encode(m.cookieName, id)
	if err != nil {
		return apierrors.NewSessionError("encode session cookie", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
