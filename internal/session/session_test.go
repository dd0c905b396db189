package session

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testKey, Options{Name: "test-session", TTL: time.Hour})
	require.NoError(t, err)
	return m
}

// withCookies copies the cookies set on rec onto a fresh request.
func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewManager(t *testing.T) {
	_, err := NewManager([]byte("short"), Options{})
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	m, err := NewManager(GenerateKey(), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, m.Name())
	assert.Equal(t, DefaultTTL, m.ttl)
}

func TestStartLoadDestroy(t *testing.T) {
	m := newTestManager(t)
	user := &model.User{ID: 7, Username: "alice"}

	rec := httptest.NewRecorder()
	started, err := m.Start(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), user)
	require.NoError(t, err)
	assert.Equal(t, int64(7), started.UserID)
	assert.Equal(t, time.Hour, started.ExpiresAt.Sub(started.CreatedAt))

	loaded, err := m.Load(withCookies(rec))
	require.NoError(t, err)
	assert.Equal(t, started.ID, loaded.ID)
	assert.Equal(t, started.UserID, loaded.UserID)
	assert.Equal(t, "alice", loaded.Username)

	logout := httptest.NewRecorder()
	require.NoError(t, m.Destroy(logout, withCookies(rec)))

	cookies := logout.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLoad_NoCookie(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_Expired(t *testing.T) {
	m := newTestManager(t)
	start := time.Now()
	m.now = func() time.Time { return start }

	rec := httptest.NewRecorder()
	_, err := m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), &model.User{ID: 1, Username: "a"})
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = m.Load(withCookies(rec))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestLoad_ForeignKeyRejected(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager([]byte("fedcba9876543210fedcba9876543210"), Options{Name: "test-session"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	_, err = other.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), &model.User{ID: 1, Username: "a"})
	require.NoError(t, err)

	_, err = m.Load(withCookies(rec))
	require.ErrorIs(t, err, ErrNoSession)
	assert.True(t, isDecodeError(err))
}

func TestMiddlewareAndRequire(t *testing.T) {
	m := newTestManager(t)

	var seen *Session
	protected := m.Middleware(m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	anon := httptest.NewRecorder()
	protected.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
	assert.Equal(t, "application/json", anon.Header().Get("Content-Type"))
	assert.Nil(t, seen)

	login := httptest.NewRecorder()
	started, err := m.Start(login, httptest.NewRequest(http.MethodPost, "/", nil), &model.User{ID: 3, Username: "bob"})
	require.NoError(t, err)

	authed := httptest.NewRecorder()
	protected.ServeHTTP(authed, withCookies(login))
	assert.Equal(t, http.StatusNoContent, authed.Code)
	require.NotNil(t, seen)
	assert.Equal(t, started.ID, seen.ID)
}

func TestMiddleware_LogsRejectedCookie(t *testing.T) {
	m := newTestManager(t)
	var buf bytes.Buffer
	restore := common.SwapDefaultLogger(&buf)
	defer restore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})

	called := false
	m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := FromContext(r.Context())
		assert.False(t, ok)
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
	assert.Contains(t, buf.String(), "session cookie rejected")
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := New(&model.User{ID: 1, Username: "a"}, time.Minute, time.Now())
	got, ok := FromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.False(t, s.Expired(s.CreatedAt))
	assert.True(t, s.Expired(s.ExpiresAt))
}
