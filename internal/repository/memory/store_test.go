package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejari49/timeroster/internal/repository"
)

func TestSetMergesTopLevelFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"name": "Ana", "shareCode": "ABC"}))
	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"name": "Anna"}))

	var doc map[string]any
	require.NoError(t, store.Get(ctx, "users", "u1", &doc))
	assert.Equal(t, "Anna", doc["name"])
	assert.Equal(t, "ABC", doc["shareCode"], "untouched fields survive a merge")
}

func TestGetMissing(t *testing.T) {
	store := New()

	var doc map[string]any
	err := store.Get(context.Background(), "users", "nope", &doc)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUpdateRequiresExistence(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.Update(ctx, "users", "u1", map[string]any{"name": "Ana"})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"name": "Ana"}))
	require.NoError(t, store.Update(ctx, "users", "u1", map[string]any{"name": "Anna"}))
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"name": "Ana"}))
	require.NoError(t, store.Delete(ctx, "users", "u1"))
	require.NoError(t, store.Delete(ctx, "users", "u1"))
}

func TestListOrdersByID(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users/u1/friends", "b", map[string]any{"name": "B"}))
	require.NoError(t, store.Set(ctx, "users/u1/friends", "a", map[string]any{"name": "A"}))

	docs, err := store.List(ctx, "users/u1/friends")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	empty, err := store.List(ctx, "users/u2/friends")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBatchDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.Set(ctx, "tokens", id, map[string]any{"token": id}))
	}
	require.NoError(t, store.BatchDelete(ctx, "tokens", []string{"t1", "t3", "missing"}))

	docs, err := store.List(ctx, "tokens")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "t2", docs[0].ID)
}

func TestTransactionCommitsAllWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.RunTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Set(ctx, "users/a/friends", "b", map[string]any{"status": "pending_sent"}); err != nil {
			return err
		}
		return tx.Set(ctx, "users/b/friends", "a", map[string]any{"status": "pending_received"})
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, store.Get(ctx, "users/a/friends", "b", &doc))
	require.NoError(t, store.Get(ctx, "users/b/friends", "a", &doc))
}

func TestTransactionReadsOwnWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"name": "Ana", "shareCode": "OLD"}))

	// A read inside the transaction sees committed state and the
	// transaction's own staged writes, not a snapshot from before it began.
	err := store.RunTransaction(ctx, func(tx repository.Tx) error {
		var before map[string]any
		if err := tx.Get(ctx, "users", "u1", &before); err != nil {
			return err
		}
		assert.Equal(t, "OLD", before["shareCode"])

		if err := tx.Set(ctx, "users", "u1", map[string]any{"shareCode": "NEW"}); err != nil {
			return err
		}
		var after map[string]any
		if err := tx.Get(ctx, "users", "u1", &after); err != nil {
			return err
		}
		assert.Equal(t, "NEW", after["shareCode"])

		var missing map[string]any
		assert.True(t, errors.Is(tx.Get(ctx, "users", "nope", &missing), repository.ErrNotFound))
		return nil
	})
	require.NoError(t, err)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users/a/friends", "b", map[string]any{"status": "pending_received"}))

	// The second Update targets a missing document; the first write must
	// not survive.
	err := store.RunTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Update(ctx, "users/a/friends", "b", map[string]any{"status": "accepted"}); err != nil {
			return err
		}
		return tx.Update(ctx, "users/b/friends", "a", map[string]any{"status": "accepted"})
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	var doc map[string]any
	require.NoError(t, store.Get(ctx, "users/a/friends", "b", &doc))
	assert.Equal(t, "pending_received", doc["status"])
}
