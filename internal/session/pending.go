package session

import (
	"context"

	"openid-provider/internal/openid"
)

// PendingStore is the at-most-one pending protocol request per session.
// Put overwrites whatever is held; Take returns the held request and
// clears the slot in one step, so a request can never be read twice. A
// take on an empty slot is ok=false, not an error.
//
// Both operations must be atomic with respect to concurrent calls on the
// same session (two tabs), with last-store-wins semantics.
type PendingStore interface {
	Put(ctx context.Context, sessionID string, req *openid.Request) error
	Take(ctx context.Context, sessionID string) (*openid.Request, bool, error)

	// Peek returns the held request without consuming it. Only the consent
	// page uses this, to show what is being approved; engine passes always
	// go through Take.
	Peek(ctx context.Context, sessionID string) (*openid.Request, bool, error)
}
