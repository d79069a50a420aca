package trust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreExists(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "i1", "https://rp.example/")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Create(ctx, TrustRoot{ID: "t1", IdentityID: "i1", TrustRoot: "https://rp.example/"}))

	ok, err = store.Exists(ctx, "i1", "https://rp.example/")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "i2", "https://rp.example/")
	require.NoError(t, err)
	assert.False(t, ok, "grants are per identity")
}

func TestInMemoryStoreToleratesDuplicates(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	rec := TrustRoot{IdentityID: "i1", TrustRoot: "https://rp.example/"}
	rec.ID = "t1"
	require.NoError(t, store.Create(ctx, rec))
	rec.ID = "t2"
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.ListByIdentity(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
