package testutil

import (
	"context"
	"net/http"

	"openid-provider/internal/session"
)

// WithSession adds a session to the request context.
// This simulates what the session middleware would do, for tests that call
// handlers directly without the full middleware chain.
func WithSession(req *http.Request, sess session.Session) *http.Request {
	ctx := context.WithValue(req.Context(), session.ContextKeySession, sess)
	return req.WithContext(ctx)
}
