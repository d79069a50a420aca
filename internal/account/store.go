package account

import (
	"context"

	dErrors "openid-provider/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across
	// implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "account not found")
)

type Store interface {
	FindByID(ctx context.Context, id string) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	Save(ctx context.Context, acc Account) error
}
