package identity

import (
	"context"

	dErrors "openid-provider/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across
	// implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "identity not found")
)

// Store is the read side of identity ownership. ListByAccount must return
// identities in a stable order by identifier; sentinel resolution leans on
// that for determinism.
type Store interface {
	ListByAccount(ctx context.Context, accountID string) ([]Identity, error)
	FindByIdentifier(ctx context.Context, identifier string) (Identity, error)
	Save(ctx context.Context, id Identity) error
}
