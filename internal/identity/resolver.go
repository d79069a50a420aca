package identity

import (
	"context"
	"log/slog"

	"openid-provider/internal/openid"
	dErrors "openid-provider/pkg/domain-errors"
)

// Resolver maps a claimed identifier onto one of the account's identities.
// It is a pure read; storage failures propagate instead of being read as
// "no identity".
type Resolver struct {
	store  Store
	urls   URLTemplate
	logger *slog.Logger
}

func NewResolver(store Store, urls URLTemplate, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, urls: urls, logger: logger}
}

// Resolve picks the identity a claimed identifier refers to, or nil when
// the claim does not belong to the account. An empty accountID means the
// caller is not authenticated; the store is not consulted at all then.
//
// The identifier_select sentinel resolves to the single default identity
// when exactly one is flagged, otherwise to the first owned identity in
// identifier order. Zero or multiple defaults are tolerated as degraded
// data, not rejected.
func (r *Resolver) Resolve(ctx context.Context, accountID, claimedID string) (*Identity, error) {
	if accountID == "" {
		return nil, nil
	}

	owned, err := r.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}

	for i := range owned {
		if claimedID == r.urls.URLFor(owned[i].Identifier) {
			return &owned[i], nil
		}
	}

	if claimedID == openid.IdentifierSelect {
		var defaults []*Identity
		for i := range owned {
			if owned[i].Default {
				defaults = append(defaults, &owned[i])
			}
		}
		if len(defaults) == 1 {
			return defaults[0], nil
		}
		if len(defaults) > 1 {
			r.logger.WarnContext(ctx, "account has multiple default identities",
				"account_id", accountID,
				"defaults", len(defaults),
			)
		}
		if len(owned) > 0 {
			// ListByAccount orders by identifier, so this pick is stable
			// across calls.
			return &owned[0], nil
		}
	}

	return nil, nil
}

// URLFor exposes the template rendering for callers that need to echo the
// concrete identity URL in responses.
func (r *Resolver) URLFor(id *Identity) string {
	return r.urls.URLFor(id.Identifier)
}
