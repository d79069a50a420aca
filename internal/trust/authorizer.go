package trust

import (
	"context"

	"openid-provider/internal/identity"
	dErrors "openid-provider/pkg/domain-errors"
)

// Authorizer is the sole gate for silent affirmative answers: a request is
// authorized only when the claimed identifier resolves to an identity of
// the acting account and that identity already trusts the relying party.
type Authorizer struct {
	resolver *identity.Resolver
	registry Store
}

func NewAuthorizer(resolver *identity.Resolver, registry Store) *Authorizer {
	return &Authorizer{resolver: resolver, registry: registry}
}

// Resolver exposes the underlying identity resolver for callers that need
// to render or resolve identities alongside authorization checks.
func (a *Authorizer) Resolver() *identity.Resolver { return a.resolver }

// Authorize returns the resolved identity when the (identity, trustRoot)
// pair is already approved, nil when it is not. The check is a pure read;
// only the consent flow writes grants. Storage failures propagate and are
// never collapsed into a denial.
func (a *Authorizer) Authorize(ctx context.Context, accountID, claimedID, trustRoot string) (*identity.Identity, error) {
	if accountID == "" {
		return nil, nil
	}

	id, err := a.resolver.Resolve(ctx, accountID, claimedID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}

	ok, err := a.registry.Exists(ctx, id.ID, trustRoot)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check trust registry")
	}
	if !ok {
		return nil, nil
	}
	return id, nil
}
