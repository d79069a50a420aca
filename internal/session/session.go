// Package session owns the browser session and the single pending-request
// slot each session carries across an interactive detour.
package session

import (
	"context"
	"time"

	dErrors "openid-provider/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across
	// implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "session not found")
)

// Session ties a browser to an account. AccountID is empty until the user
// logs in; an anonymous session can still hold a pending request.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session is bound to an account.
func (s Session) Authenticated() bool { return s.AccountID != "" }

type Store interface {
	Save(ctx context.Context, sess Session) error
	FindByID(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
