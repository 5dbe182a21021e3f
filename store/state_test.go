package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/blockexec/types"
)

func requireState(t *testing.T, s *DefaultStore, chainID types.Hash, key string, expected []byte) {
	t.Helper()
	value, err := s.GetState(context.Background(), chainID, key)
	if expected == nil {
		require.ErrorIs(t, err, ErrNotFound, "key %q should not exist", key)
		return
	}
	require.NoError(t, err)
	require.Equal(t, expected, value, "key %q", key)
}

func TestApplyTransactionDeltaRecordsPrevious(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")
	disambiguation := types.GetRandomHash()

	tx1 := types.GetRandomHash()
	_, err := s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx1, []types.StateChange{
		{Key: "balance/alice", Next: []byte("10")},
	})
	require.NoError(t, err)

	tx2 := types.GetRandomHash()
	delta, err := s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx2, []types.StateChange{
		{Key: "balance/alice", Next: []byte("7")},
		{Key: "balance/alice", Next: []byte("5")},
		{Key: "balance/bob", Next: []byte("5")},
	})
	require.NoError(t, err)

	require.Len(t, delta.Changes, 3)
	assert.Equal(t, types.StateChange{Key: "balance/alice", Prev: []byte("10"), Existed: true, Next: []byte("7")}, delta.Changes[0])
	assert.Equal(t, types.StateChange{Key: "balance/alice", Prev: []byte("7"), Existed: true, Next: []byte("5")}, delta.Changes[1])
	assert.Equal(t, types.StateChange{Key: "balance/bob", Next: []byte("5")}, delta.Changes[2])

	requireState(t, s, chainID, "balance/alice", []byte("5"))
	requireState(t, s, chainID, "balance/bob", []byte("5"))
}

func TestRollbackStateForTransactions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")
	disambiguation := types.GetRandomHash()

	base := types.GetRandomHash()
	_, err := s.ApplyTransactionDelta(ctx, chainID, types.GetRandomHash(), base, []types.StateChange{
		{Key: "a", Next: []byte("a0")},
		{Key: "gone", Next: []byte("g0")},
	})
	require.NoError(t, err)

	tx1 := types.GetRandomHash()
	_, err = s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx1, []types.StateChange{
		{Key: "a", Next: []byte("a1")},
		{Key: "new", Next: []byte("n1")},
	})
	require.NoError(t, err)

	tx2 := types.GetRandomHash()
	_, err = s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx2, []types.StateChange{
		{Key: "a", Next: []byte("a2")},
		{Key: "gone", Deleted: true},
	})
	require.NoError(t, err)

	require.NoError(t, s.RollbackStateForTransactions(ctx, chainID, []types.Hash{tx1, tx2}, disambiguation))

	requireState(t, s, chainID, "a", []byte("a0"))
	requireState(t, s, chainID, "gone", []byte("g0"))
	requireState(t, s, chainID, "new", nil)

	// a second rollback finds no deltas and changes nothing
	require.NoError(t, s.RollbackStateForTransactions(ctx, chainID, []types.Hash{tx1, tx2}, disambiguation))
	requireState(t, s, chainID, "a", []byte("a0"))
}

func TestRollbackFollowsApplicationOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")
	disambiguation := types.GetRandomHash()

	_, err := s.ApplyTransactionDelta(ctx, chainID, types.GetRandomHash(), types.GetRandomHash(), []types.StateChange{
		{Key: "kept", Next: []byte("k0")},
	})
	require.NoError(t, err)

	// the engine applied tx2 before tx1 although tx1 comes first in the block
	tx1, tx2 := types.GetRandomHash(), types.GetRandomHash()
	_, err = s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx2, []types.StateChange{
		{Key: "k", Next: []byte("2")},
		{Key: "kept", Next: []byte("k2")},
	})
	require.NoError(t, err)
	_, err = s.ApplyTransactionDelta(ctx, chainID, disambiguation, tx1, []types.StateChange{
		{Key: "k", Next: []byte("1")},
		{Key: "kept", Deleted: true},
	})
	require.NoError(t, err)
	requireState(t, s, chainID, "k", []byte("1"))

	require.NoError(t, s.RollbackStateForTransactions(ctx, chainID, []types.Hash{tx1, tx2}, disambiguation))
	requireState(t, s, chainID, "k", nil)
	requireState(t, s, chainID, "kept", []byte("k0"))

	ids, err := s.ListDeltas(ctx, chainID, disambiguation)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRollbackIsScopedToDisambiguation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")

	tx := types.GetRandomHash()
	_, err := s.ApplyTransactionDelta(ctx, chainID, types.HashFromString("block-1"), tx, []types.StateChange{
		{Key: "k", Next: []byte("v")},
	})
	require.NoError(t, err)

	require.NoError(t, s.RollbackStateForTransactions(ctx, chainID, []types.Hash{tx}, types.HashFromString("block-2")))
	requireState(t, s, chainID, "k", []byte("v"))
}

func TestRollbackEmptySet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.NoError(t, s.RollbackStateForTransactions(context.Background(), types.HashFromString("chain"), nil, types.ZeroHash))
	assert.NoError(t, s.RollbackStateForTransactions(context.Background(), types.HashFromString("chain"), []types.Hash{types.GetRandomHash()}, types.ZeroHash))
}

func TestListDeltas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")
	disambiguation := types.GetRandomHash()

	var applied []types.Hash
	for i := 0; i < 5; i++ {
		txID := types.GetRandomHash()
		_, err := s.ApplyTransactionDelta(ctx, chainID, disambiguation, txID, []types.StateChange{
			{Key: "counter", Next: []byte{byte(i)}},
		})
		require.NoError(t, err)
		applied = append(applied, txID)
	}
	_, err := s.ApplyTransactionDelta(ctx, chainID, types.GetRandomHash(), types.GetRandomHash(), nil)
	require.NoError(t, err)

	ids, err := s.ListDeltas(ctx, chainID, disambiguation)
	require.NoError(t, err)
	assert.Equal(t, applied, ids)

	require.NoError(t, s.RollbackStateForTransactions(ctx, chainID, ids, disambiguation))
	requireState(t, s, chainID, "counter", nil)

	ids, err = s.ListDeltas(ctx, chainID, disambiguation)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
