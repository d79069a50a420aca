package provider

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openid-provider/internal/openid"
	dErrors "openid-provider/pkg/domain-errors"
)

func pendingCheckid(claimed string) *openid.Request {
	return &openid.Request{
		Mode:      openid.ModeCheckIDSetup,
		Identity:  claimed,
		ClaimedID: claimed,
		TrustRoot: rpRoot,
		ReturnTo:  rpReturn,
	}
}

func TestCompleteUnauthenticatedDefersToLogin(t *testing.T) {
	p := newTestProvider(t, false)
	ctx := context.Background()
	require.NoError(t, p.pending.Put(ctx, "sess1", pendingCheckid(alice1URL)))

	result, err := p.consent.Complete(ctx, anonSession())
	require.NoError(t, err)
	assert.Equal(t, DecisionNeedsLogin, result.Decision)
}

func TestCompleteWithoutPendingRequest(t *testing.T) {
	p := newTestProvider(t, false)

	_, err := p.consent.Complete(context.Background(), aliceSession())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCompleteUnresolvedIdentityCreatesNoGrant(t *testing.T) {
	p := newTestProvider(t, false)
	ctx := context.Background()
	require.NoError(t, p.pending.Put(ctx, "sess1", pendingCheckid("http://op.example/openid/id/mallory")))

	_, err := p.consent.Complete(ctx, aliceSession())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnresolvedIdentity))

	for _, identityID := range []string{"i1", "i2"} {
		got, err := p.registry.ListByIdentity(ctx, identityID)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestCompleteGrantsTrustAndRedirects(t *testing.T) {
	p := newTestProvider(t, false)
	ctx := context.Background()
	require.NoError(t, p.pending.Put(ctx, "sess1", pendingCheckid(alice1URL)))

	result, err := p.consent.Complete(ctx, aliceSession())
	require.NoError(t, err)
	assert.Equal(t, DecisionGranted, result.Decision)
	assert.Equal(t, "/openid", result.RedirectURL)

	// The grant is visible to the very next authorization check.
	id, err := p.engine.authorizer.Authorize(ctx, "acc1", alice1URL, rpRoot)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "i1", id.ID)

	// The request is parked again so the next engine pass can answer it.
	held, ok, err := p.pending.Peek(ctx, "sess1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rpRoot, held.TrustRoot)
}

// Full loop from spec behavior: setup request defers to consent, consent
// grants, and the follow-up pass answers affirmatively.
func TestConsentRoundTrip(t *testing.T) {
	p := newTestProvider(t, false)
	ctx := context.Background()
	sess := aliceSession()

	result, err := p.engine.Handle(ctx, sess, checkidParams(openid.IdentifierSelect, openid.ModeCheckIDSetup))
	require.NoError(t, err)
	require.Equal(t, DecisionNeedsConsent, result.Decision)

	result, err = p.consent.Complete(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, DecisionGranted, result.Decision)

	// The browser lands back on the endpoint with no protocol parameters.
	result, err = p.engine.Handle(ctx, sess, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DecisionAnswer, result.Decision)

	q := assertionQuery(t, result.Web)
	assert.Equal(t, alice1URL, q.Get("openid.identity"), "sentinel resolved to the default identity")
}

func TestPendingSummary(t *testing.T) {
	p := newTestProvider(t, false)
	ctx := context.Background()

	_, err := p.consent.Pending(ctx, aliceSession())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(t, p.pending.Put(ctx, "sess1", pendingCheckid(alice1URL)))
	summary, err := p.consent.Pending(ctx, aliceSession())
	require.NoError(t, err)
	assert.Equal(t, rpRoot, summary.TrustRoot)
	assert.Equal(t, alice1URL, summary.Identity)

	// Peeking must not consume the slot.
	_, ok, err := p.pending.Peek(ctx, "sess1")
	require.NoError(t, err)
	assert.True(t, ok)
}
