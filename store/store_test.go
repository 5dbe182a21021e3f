package store

import (
	"context"
	"testing"

	ds "github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/blockexec/types"
)

func newTestStore(t *testing.T) *DefaultStore {
	t.Helper()
	kv, err := NewDefaultInMemoryKVStore()
	require.NoError(t, err)
	s := New(kv)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreHeight(t *testing.T) {
	t.Parallel()
	chainID := types.HashFromString("chain")
	cases := []struct {
		name     string
		blocks   []uint64
		expected uint64
	}{
		{"empty store", []uint64{}, 0},
		{"one block", []uint64{1}, 1},
		{"genesis at zero", []uint64{0, 1, 2}, 2},
		{"consecutive blocks", []uint64{5, 6, 7, 8}, 8},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()
			s := newTestStore(t)

			prev := types.ZeroHash
			for _, height := range c.blocks {
				block := types.NewBlock(chainID, height, prev, types.Txs{types.GetRandomTx()}, nil)
				require.NoError(s.AppendBlocks(ctx, chainID, []*types.Block{block}))
				prev = block.Hash()
			}

			height, err := s.Height(ctx, chainID)
			require.NoError(err)
			assert.Equal(c.expected, height)

			last, err := s.LastBlockHash(ctx, chainID)
			require.NoError(err)
			assert.Equal(prev, last)
		})
	}
}

func TestAppendBlocksRejectsGaps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")

	b1 := types.NewBlock(chainID, 1, types.ZeroHash, types.Txs{types.GetRandomTx()}, nil)
	require.NoError(t, s.AppendBlocks(ctx, chainID, []*types.Block{b1}))

	gap := types.NewBlock(chainID, 3, b1.Hash(), types.Txs{types.GetRandomTx()}, nil)
	assert.ErrorIs(t, s.AppendBlocks(ctx, chainID, []*types.Block{gap}), ErrHeightMismatch)

	fork := types.NewBlock(chainID, 2, types.GetRandomHash(), types.Txs{types.GetRandomTx()}, nil)
	assert.ErrorIs(t, s.AppendBlocks(ctx, chainID, []*types.Block{fork}), ErrPreviousHashMismatch)

	other := types.NewBlock(types.HashFromString("other"), 2, b1.Hash(), types.Txs{types.GetRandomTx()}, nil)
	assert.Error(t, s.AppendBlocks(ctx, chainID, []*types.Block{other}))

	height, err := s.Height(ctx, chainID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height, "rejected appends must not move the tip")
}

func TestStoreLoadBlock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")

	b1 := types.NewBlock(chainID, 1, types.ZeroHash, types.Txs{types.GetRandomTx(), types.GetRandomTx()}, nil)
	b2 := types.NewBlock(chainID, 2, b1.Hash(), types.Txs{types.GetRandomTx()}, []*types.SideChainBlockInfo{types.GetRandomSideChainBlockInfo()})
	require.NoError(t, s.AppendBlocks(ctx, chainID, []*types.Block{b1, b2}))

	for _, expected := range []*types.Block{b1, b2} {
		byHeight, err := s.GetBlock(ctx, chainID, expected.Index())
		require.NoError(t, err)
		assert.Equal(t, expected.Hash(), byHeight.Hash())
		assert.Equal(t, expected.Body.Transactions.Hashes(), byHeight.Body.Transactions.Hashes())

		byHash, err := s.GetBlockByHash(ctx, chainID, expected.Hash())
		require.NoError(t, err)
		assert.Equal(t, expected.Index(), byHash.Index())
	}

	_, err := s.GetBlock(ctx, chainID, 3)
	assert.ErrorIs(t, err, ds.ErrNotFound)
	_, err = s.GetBlockByHash(ctx, chainID, types.GetRandomHash())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	res := &types.TransactionResult{
		TransactionID: types.GetRandomHash(),
		Status:        types.StatusMined,
		RetVal:        []byte("ret"),
		Logs:          []types.LogEvent{{Address: types.Address{1}, Data: []byte("log")}},
		StateHash:     types.GetRandomHash(),
		BlockNumber:   12,
		BlockHash:     types.GetRandomHash(),
	}
	require.NoError(t, s.AddTransactionResult(ctx, res))

	got, err := s.GetTransactionResult(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	_, err = s.GetTransactionResult(ctx, types.GetRandomHash())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMerkleTrees(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	chainID := types.HashFromString("chain")

	txTree := types.NewBinaryMerkleTree(types.GetRandomHash(), types.GetRandomHash())
	txTree.ComputeRootHash()
	require.NoError(t, s.AddTransactionsMerkleTree(ctx, txTree, chainID, 4))
	require.NoError(t, s.AddSideChainTransactionRootsMerkleTree(ctx, nil, chainID, 4))

	got, err := s.GetTransactionsMerkleTree(ctx, chainID, 4)
	require.NoError(t, err)
	assert.Equal(t, txTree.Root, got.Root)
	assert.Equal(t, txTree.Nodes, got.Nodes)

	side, err := s.GetSideChainTransactionRootsMerkleTree(ctx, chainID, 4)
	require.NoError(t, err)
	assert.Empty(t, side.Nodes)

	_, err = s.GetTransactionsMerkleTree(ctx, chainID, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
