package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *InMemoryStore) {
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, "op_session", logger), store
}

func captureSession(t *testing.T, m *Manager, req *http.Request) (Session, *httptest.ResponseRecorder) {
	t.Helper()
	var captured Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		require.True(t, ok, "session missing from context")
		captured = sess
	})
	rr := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rr, req)
	return captured, rr
}

func TestMiddlewareMintsAnonymousSession(t *testing.T) {
	m, store := newTestManager()

	sess, rr := captureSession(t, m, httptest.NewRequest(http.MethodGet, "/openid", nil))
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.Authenticated())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "op_session", cookies[0].Name)
	assert.Equal(t, sess.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	stored, err := store.FindByID(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
}

func TestMiddlewareReusesExistingSession(t *testing.T) {
	m, _ := newTestManager()

	first, rr := captureSession(t, m, httptest.NewRequest(http.MethodGet, "/openid", nil))

	req := httptest.NewRequest(http.MethodGet, "/openid", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	second, rr2 := captureSession(t, m, req)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, rr2.Result().Cookies(), "no new cookie for a live session")
}

func TestMiddlewareReplacesStaleCookie(t *testing.T) {
	m, _ := newTestManager()

	req := httptest.NewRequest(http.MethodGet, "/openid", nil)
	req.AddCookie(&http.Cookie{Name: "op_session", Value: "gone"})
	sess, rr := captureSession(t, m, req)

	assert.NotEqual(t, "gone", sess.ID)
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, sess.ID, rr.Result().Cookies()[0].Value)
}

func TestBindAndUnbind(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	sess := Session{ID: "s1"}
	require.NoError(t, store.Save(ctx, sess))

	bound, err := m.Bind(ctx, sess, "acc1")
	require.NoError(t, err)
	assert.True(t, bound.Authenticated())

	stored, err := store.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "acc1", stored.AccountID)

	unbound, err := m.Unbind(ctx, bound)
	require.NoError(t, err)
	assert.False(t, unbound.Authenticated())

	stored, err = store.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.AccountID, "session survives logout without its account")
}
