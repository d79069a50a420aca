package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	dErrors "openid-provider/pkg/domain-errors"
)

type contextKey string

// ContextKeySession carries the current Session through request handling.
const ContextKeySession contextKey = "session"

// FromContext returns the session attached by Manager.Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ContextKeySession).(Session)
	return sess, ok
}

// Manager binds sessions to browsers through a cookie and exposes them as
// request context. Anonymous sessions are created eagerly so the pending
// slot has a home before login.
type Manager struct {
	store  Store
	cookie string
	logger *slog.Logger
}

func NewManager(store Store, cookieName string, logger *slog.Logger) *Manager {
	return &Manager{store: store, cookie: cookieName, logger: logger}
}

// Middleware resolves (or creates) the browser session and attaches it to
// the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.ensure(w, r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "session resolution failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) ensure(w http.ResponseWriter, r *http.Request) (Session, error) {
	if cookie, err := r.Cookie(m.cookie); err == nil && cookie.Value != "" {
		sess, err := m.store.FindByID(r.Context(), cookie.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrNotFound) && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Session{}, err
		}
		// Stale cookie; fall through and mint a fresh session.
	}

	sess := Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	if err := m.store.Save(r.Context(), sess); err != nil {
		return Session{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Bind attaches an account to the session after a successful login.
func (m *Manager) Bind(ctx context.Context, sess Session, accountID string) (Session, error) {
	sess.AccountID = accountID
	if err := m.store.Save(ctx, sess); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind session")
	}
	return sess, nil
}

// Unbind drops the account from the session, keeping the session itself.
func (m *Manager) Unbind(ctx context.Context, sess Session) (Session, error) {
	sess.AccountID = ""
	if err := m.store.Save(ctx, sess); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to unbind session")
	}
	return sess, nil
}
