// Package session tracks signed-in users. A Session is an explicit value
// created at login and passed along by the HTTP layer and the terminal UI.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// Defaults for the cookie manager.
const (
	DefaultName   = "fraudwatch-session"
	DefaultTTL    = 12 * time.Hour
	MinKeyLength  = 32
	generatedSize = 32
)

// Session errors.
var (
	ErrNoSession = errors.New("no active session")
	ErrExpired   = errors.New("session expired")
)

// Session identifies a signed-in user.
type Session struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
}

// New creates a session for user that lasts ttl from now.
func New(user *model.User, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Cookie value keys.
const (
	keyID        = "session_id"
	keyUserID    = "user_id"
	keyUsername  = "username"
	keyCreatedAt = "created_at"
	keyExpiresAt = "expires_at"
)

// Options configures a Manager.
type Options struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Manager stores sessions in signed cookies.
type Manager struct {
	store *sessions.CookieStore
	now   func() time.Time
	name  string
	ttl   time.Duration
}

// GenerateKey returns a random signing key. Sessions signed with it do not
// survive a restart.
func GenerateKey() []byte {
	return securecookie.GenerateRandomKey(generatedSize)
}

// NewManager creates a cookie-backed session manager. The key signs cookies
// and must be at least MinKeyLength bytes.
func NewManager(key []byte, opts Options) (*Manager, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%w: session key must be at least %d bytes, got %d",
			common.ErrInvalidConfig, MinKeyLength, len(key))
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(opts.TTL.Seconds()))

	return &Manager{
		store: store,
		now:   time.Now,
		name:  opts.Name,
		ttl:   opts.TTL,
	}, nil
}

// Name returns the session cookie name.
func (m *Manager) Name() string {
	return m.name
}

// Start creates a session for user and writes its cookie.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, user *model.User) (*Session, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		// An unreadable cookie is replaced.
		sess, _ = m.store.New(r, m.name)
	}

	s := New(user, m.ttl, m.now())
	sess.Values[keyID] = s.ID.String()
	sess.Values[keyUserID] = s.UserID
	sess.Values[keyUsername] = s.Username
	sess.Values[keyCreatedAt] = s.CreatedAt.Unix()
	sess.Values[keyExpiresAt] = s.ExpiresAt.Unix()

	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// Load reads the session from the request cookie.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if sess.IsNew {
		return nil, ErrNoSession
	}

	id, err := uuid.Parse(getString(sess, keyID))
	if err != nil {
		return nil, fmt.Errorf("%w: bad session id", ErrNoSession)
	}
	userID, _ := sess.Values[keyUserID].(int64)
	created, _ := sess.Values[keyCreatedAt].(int64)
	expires, _ := sess.Values[keyExpiresAt].(int64)
	if userID <= 0 {
		return nil, ErrNoSession
	}

	s := &Session{
		ID:        id,
		UserID:    userID,
		Username:  getString(sess, keyUsername),
		CreatedAt: time.Unix(created, 0),
		ExpiresAt: time.Unix(expires, 0),
	}
	if s.Expired(m.now()) {
		return nil, ErrExpired
	}
	return s, nil
}

// Destroy ends the session and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		sess, _ = m.store.New(r, m.name)
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Middleware puts the request's session, when there is a valid one, into the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case errors.Is(err, ErrExpired):
			slog.Debug("session expired", "path", r.URL.Path)
		case isDecodeError(err):
			slog.Warn("session cookie rejected",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"error", err)
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a session in their context.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Please log in."})
	})
}

// isDecodeError reports whether err came from a cookie that could not be
// verified or decoded: a forged, corrupted or stale-key cookie.
func isDecodeError(err error) bool {
	var scErr securecookie.Error
	return errors.As(err, &scErr) && scErr.IsDecode()
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
