package trust

import "context"

// Store is the trust registry. Create is only ever called from the
// consent flow; authorization checks go through Exists and must not
// mutate anything.
type Store interface {
	Exists(ctx context.Context, identityID, trustRoot string) (bool, error)
	Create(ctx context.Context, rec TrustRoot) error
	ListByIdentity(ctx context.Context, identityID string) ([]TrustRoot, error)
}
