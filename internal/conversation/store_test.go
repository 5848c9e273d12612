package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetOrCreate(t *testing.T) {
	store := NewMemoryStore(func() time.Time { return anchor })
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, StageGreeting, sess.Stage)
	assert.Equal(t, anchor, sess.CreatedAt)

	again, err := store.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, sess, again, "same id must return the same session")
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreGetIsReadOnly(t *testing.T) {
	store := NewMemoryStore(func() time.Time { return anchor })
	ctx := context.Background()

	_, err := store.Get(ctx, "unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Len(), "a lookup miss must not materialize a session")

	created, err := store.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestMemoryStoreSave(t *testing.T) {
	store := NewMemoryStore(func() time.Time { return anchor })
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, sess.Advance(StageCollectingDetails))
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StageCollectingDetails, loaded.Stage)
	assert.Equal(t, anchor, loaded.UpdatedAt)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	a, err := store.GetOrCreate(ctx, "a")
	require.NoError(t, err)
	b, err := store.GetOrCreate(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, a.Advance(StageCollectingDetails))
	assert.Equal(t, StageGreeting, b.Stage)
	assert.Equal(t, 2, store.Len())
}
