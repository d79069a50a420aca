package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openid-provider/internal/openid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, identities ...Identity) *Resolver {
	t.Helper()
	store := NewInMemoryStore()
	for _, id := range identities {
		require.NoError(t, store.Save(context.Background(), id))
	}
	return NewResolver(store, NewURLTemplate("http://op.example"), testLogger())
}

func TestResolveOwnedIdentifier(t *testing.T) {
	r := newTestResolver(t,
		Identity{ID: "i1", AccountID: "acc1", Identifier: "alice1", Default: true},
		Identity{ID: "i2", AccountID: "acc1", Identifier: "alice2"},
	)

	got, err := r.Resolve(context.Background(), "acc1", "http://op.example/openid/id/alice2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "i2", got.ID)
}

func TestResolveForeignOrUnknownIdentifier(t *testing.T) {
	r := newTestResolver(t,
		Identity{ID: "i1", AccountID: "acc1", Identifier: "alice1", Default: true},
		Identity{ID: "i9", AccountID: "acc2", Identifier: "bob", Default: true},
	)

	cases := []string{
		"http://op.example/openid/id/bob",      // owned by someone else
		"http://op.example/openid/id/missing",  // nobody owns it
		"http://evil.example/openid/id/alice1", // wrong host
		"alice1",                               // bare identifier, not a URL
	}
	for _, claimed := range cases {
		got, err := r.Resolve(context.Background(), "acc1", claimed)
		require.NoError(t, err, claimed)
		assert.Nil(t, got, claimed)
	}
}

func TestResolveSentinel(t *testing.T) {
	t.Run("single default wins", func(t *testing.T) {
		r := newTestResolver(t,
			Identity{ID: "i1", AccountID: "acc1", Identifier: "zz-first-by-id", Default: true},
			Identity{ID: "i2", AccountID: "acc1", Identifier: "aa-last-by-default"},
		)
		got, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "i1", got.ID)
	})

	t.Run("no default falls back to identifier order", func(t *testing.T) {
		r := newTestResolver(t,
			Identity{ID: "i1", AccountID: "acc1", Identifier: "beta"},
			Identity{ID: "i2", AccountID: "acc1", Identifier: "alpha"},
		)
		got, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alpha", got.Identifier)
	})

	t.Run("multiple defaults fall back to identifier order", func(t *testing.T) {
		r := newTestResolver(t,
			Identity{ID: "i1", AccountID: "acc1", Identifier: "beta", Default: true},
			Identity{ID: "i2", AccountID: "acc1", Identifier: "alpha", Default: true},
		)
		got, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alpha", got.Identifier)
	})

	t.Run("no identities at all", func(t *testing.T) {
		r := newTestResolver(t)
		got, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		r := newTestResolver(t,
			Identity{ID: "i1", AccountID: "acc1", Identifier: "carol1"},
			Identity{ID: "i2", AccountID: "acc1", Identifier: "carol2"},
			Identity{ID: "i3", AccountID: "acc1", Identifier: "carol3"},
		)
		first, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		second, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
		require.NoError(t, err)
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, first.ID, second.ID)
	})
}

// failingStore trips the test if the resolver touches storage at all.
type failingStore struct{ t *testing.T }

func (s failingStore) ListByAccount(context.Context, string) ([]Identity, error) {
	s.t.Fatal("store consulted for unauthenticated caller")
	return nil, nil
}

func (s failingStore) FindByIdentifier(context.Context, string) (Identity, error) {
	s.t.Fatal("store consulted for unauthenticated caller")
	return Identity{}, nil
}

func (s failingStore) Save(context.Context, Identity) error { return nil }

func TestResolveUnauthenticatedSkipsStore(t *testing.T) {
	r := NewResolver(failingStore{t: t}, NewURLTemplate("http://op.example"), testLogger())
	got, err := r.Resolve(context.Background(), "", "http://op.example/openid/id/alice1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// erroringStore simulates a storage failure.
type erroringStore struct{}

func (erroringStore) ListByAccount(context.Context, string) ([]Identity, error) {
	return nil, errors.New("connection refused")
}

func (erroringStore) FindByIdentifier(context.Context, string) (Identity, error) {
	return Identity{}, errors.New("connection refused")
}

func (erroringStore) Save(context.Context, Identity) error { return nil }

func TestResolveStorageFailurePropagates(t *testing.T) {
	r := NewResolver(erroringStore{}, NewURLTemplate("http://op.example"), testLogger())
	got, err := r.Resolve(context.Background(), "acc1", openid.IdentifierSelect)
	require.Error(t, err)
	assert.Nil(t, got)
}
