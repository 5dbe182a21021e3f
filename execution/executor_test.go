package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/blockexec/config"
	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/log/test"
	"github.com/rollkit/blockexec/test/mocks"
	"github.com/rollkit/blockexec/types"
)

type fixture struct {
	engine *mocks.Engine
	hub    *mocks.TxHub
	cc     *mocks.CrossChainClient
	store  *mocks.Store
	pub    *mocks.Publisher
	logger *test.MockLogger
	exec   *BlockExecutor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	f := &fixture{
		engine: new(mocks.Engine),
		hub:    new(mocks.TxHub),
		cc:     new(mocks.CrossChainClient),
		store:  new(mocks.Store),
		pub:    new(mocks.Publisher),
		logger: &test.MockLogger{},
	}
	opts = append([]Option{WithPublisher(f.pub)}, opts...)
	f.exec = NewBlockExecutor(config.DefaultConfig(), f.engine, f.hub, f.cc, f.store, f.store, f.store, f.logger, opts...)
	f.exec.Init()
	t.Cleanup(func() {
		mock.AssertExpectationsForObjects(t, f.engine, f.hub, f.cc, f.store, f.pub)
	})
	return f
}

// tracesFor returns one trace per tx. Transactions at the indexes in failed
// carry an error.
func tracesFor(txs types.Txs, failed ...int) []*types.Trace {
	traces := make([]*types.Trace, len(txs))
	for i, tx := range txs {
		traces[i] = &types.Trace{TransactionID: tx.Hash(), StateHash: types.GetRandomHash()}
	}
	for _, i := range failed {
		traces[i].StdErr = "out of gas"
	}
	return traces
}

func stateRoot(traces []*types.Trace) types.Hash {
	hashes := make([]types.Hash, len(traces))
	for i, trace := range traces {
		hashes[i] = trace.StateHash
	}
	return types.MerkleRoot(hashes...)
}

func newTestBlock(chainID types.Hash, txs types.Txs, root types.Hash, indexed ...*types.SideChainBlockInfo) *types.Block {
	block := types.NewBlock(chainID, 1, types.GetRandomHash(), txs, indexed)
	block.Header.MerkleTreeRootOfWorldState = root
	return block
}

func randomTxs(n int) types.Txs {
	txs := make(types.Txs, n)
	for i := range txs {
		txs[i] = types.GetRandomTx()
	}
	return txs
}

func (f *fixture) expectReceipts(txs types.Txs, executable bool) {
	receipts := make([]*types.Receipt, len(txs))
	for i, tx := range txs {
		receipts[i] = &types.Receipt{TransactionID: tx.Hash(), IsExecutable: executable}
	}
	f.hub.On("GetReceiptsFor", mock.Anything, txs).Return(receipts, nil).Once()
}

func (f *fixture) expectExecute(block *types.Block, traces []*types.Trace, err error) *mock.Call {
	return f.engine.On("Execute", mock.Anything, block.Body.Transactions, block.ChainID(), block.Header.DisambiguationHash()).
		Return(traces, err).Once()
}

func (f *fixture) expectTrees(block *types.Block) {
	f.store.On("AddTransactionsMerkleTree", mock.Anything, mock.Anything, block.ChainID(), block.Index()).Return(nil).Once()
	f.store.On("AddSideChainTransactionRootsMerkleTree", mock.Anything, mock.Anything, block.ChainID(), block.Index()).Return(nil).Once()
}

func (f *fixture) expectRollback(block *types.Block, ids []types.Hash, err error) {
	f.store.On("RollbackStateForTransactions", mock.Anything, block.ChainID(), ids, block.Header.DisambiguationHash()).Return(err).Once()
	if err == nil {
		f.pub.On("Publish", mock.MatchedBy(func(e events.BlockRolledBack) bool {
			return e.ChainID == block.ChainID() && e.BlockIndex == block.Index() && assert.ObjectsAreEqual(ids, e.Reverted)
		})).Once()
	}
}

// expectCommit sets up every call made after a block was verified. The
// persisted results are returned through the slice pointer.
func (f *fixture) expectCommit(block *types.Block) *[]*types.TransactionResult {
	f.expectTrees(block)
	var (
		mtx       sync.Mutex
		persisted []*types.TransactionResult
	)
	f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mtx.Lock()
		defer mtx.Unlock()
		persisted = append(persisted, args.Get(1).(*types.TransactionResult))
	}).Return(nil).Times(block.Body.TransactionsCount())
	f.store.On("AppendBlocks", mock.Anything, block.ChainID(), []*types.Block{block}).Return(nil).Once()
	f.store.On("Height", mock.Anything, block.ChainID()).Return(block.Index(), nil).Once()
	f.pub.On("Publish", mock.MatchedBy(func(e events.TransactionsExecuted) bool {
		return e.ChainID == block.ChainID() && e.BlockIndex == block.Index() && len(e.Transactions) == block.Body.TransactionsCount()
	})).Once()
	return &persisted
}

func (f *fixture) assertNothingPersisted(t *testing.T) {
	f.store.AssertNotCalled(t, "AddTransactionResult", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "AppendBlocks", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBlockSuccess(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	txs := randomTxs(3)
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	persisted := f.expectCommit(block)

	require.Equal(Success, f.exec.ExecuteBlock(context.Background(), block))
	require.Len(*persisted, 3)
	for _, r := range *persisted {
		require.Equal(types.StatusMined, r.Status)
		require.Equal(block.Index(), r.BlockNumber)
		require.Equal(block.Hash(), r.BlockHash)
	}
	f.store.AssertNotCalled(t, "RollbackStateForTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBlockTraceOrder(t *testing.T) {
	cases := []struct {
		name    string
		reverse bool
	}{
		{"block order", false},
		{"reversed", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			txs := randomTxs(4)
			traces := tracesFor(txs)
			block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

			reported := append([]*types.Trace(nil), traces...)
			if tc.reverse {
				for i, j := 0, len(reported)-1; i < j; i, j = i+1, j-1 {
					reported[i], reported[j] = reported[j], reported[i]
				}
			}

			f.expectReceipts(txs, true)
			f.expectExecute(block, reported, nil)
			persisted := f.expectCommit(block)

			assert.Equal(t, Success, f.exec.ExecuteBlock(context.Background(), block))
			assert.Len(t, *persisted, len(txs))
		})
	}
}

func TestExecuteBlockNotInitialized(t *testing.T) {
	f := newFixture(t)
	exec := NewBlockExecutor(config.DefaultConfig(), f.engine, f.hub, f.cc, f.store, f.store, f.store, f.logger)

	block := newTestBlock(types.GetRandomHash(), randomTxs(1), types.Hash{})
	assert.Equal(t, ExecutionCancelled, exec.ExecuteBlock(context.Background(), block))
}

func TestExecuteBlockCancelled(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	txs := randomTxs(1)
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

	f.exec.Cancel()
	require.Equal(ExecutionCancelled, f.exec.ExecuteBlock(context.Background(), block))
	require.Len(f.engine.Calls, 0)
	require.Len(f.hub.Calls, 0)
	require.Len(f.cc.Calls, 0)
	require.Len(f.store.Calls, 0)

	// a new session accepts blocks again
	f.exec.Init()
	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	f.expectCommit(block)
	require.Equal(Success, f.exec.ExecuteBlock(context.Background(), block))
}

func TestExecuteBlockCancelledDuringExecution(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	txs := randomTxs(2)
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

	f.expectReceipts(txs, true)
	f.expectExecute(block, traces[:1], context.Canceled).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		f.exec.Cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("engine context not cancelled")
		}
	})
	f.expectRollback(block, []types.Hash{txs[0].Hash()}, nil)

	require.Equal(ExecutionCancelled, f.exec.ExecuteBlock(context.Background(), block))
	f.assertNothingPersisted(t)
}

func TestExecuteBlockNull(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, BlockIsNull, f.exec.ExecuteBlock(context.Background(), nil))
	assert.Equal(t, BlockIsNull, f.exec.ExecuteBlock(context.Background(), &types.Block{}))
}

func TestExecuteBlockNoTransaction(t *testing.T) {
	f := newFixture(t)
	block := newTestBlock(types.GetRandomHash(), nil, types.Hash{})

	assert.Equal(t, NoTransaction, f.exec.ExecuteBlock(context.Background(), block))
	assert.Len(t, f.store.Calls, 0)
	assert.Len(t, f.engine.Calls, 0)
}

func TestExecuteBlockInvalidSideChainInfo(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
		err  error
	}{
		{"mismatch", false, nil},
		{"client error", false, errors.New("connection reset")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			info := types.GetRandomSideChainBlockInfo()
			block := newTestBlock(types.GetRandomHash(), randomTxs(1), types.Hash{}, info)

			f.cc.On("CheckSideChainBlockInfo", mock.Anything, info).Return(tc.ok, tc.err).Once()

			assert.Equal(t, InvalidSideChainInfo, f.exec.ExecuteBlock(context.Background(), block))
			assert.Len(t, f.engine.Calls, 0)
			assert.Len(t, f.store.Calls, 0)
		})
	}
}

func TestExecuteBlockTooManyParentChainTxs(t *testing.T) {
	cases := []struct {
		name  string
		valid []bool
	}{
		{"both valid", []bool{true, true}},
		{"first invalid", []bool{false, true}},
		{"both invalid", []bool{false, false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			cached := types.GetRandomParentChainBlockInfo()

			txs := randomTxs(1)
			for _, valid := range tc.valid {
				info := types.GetRandomParentChainBlockInfo()
				if valid {
					info = &types.ParentChainBlockInfo{}
					*info = *cached
				}
				txs = append(txs, types.GetRandomCrossChainTx(info))
			}
			block := newTestBlock(types.GetRandomHash(), txs, types.Hash{})

			f.cc.On("TryGetParentChainBlockInfo", mock.Anything).Return(cached, nil).Maybe()

			assert.Equal(t, TooManyTxsForParentChainBlock, f.exec.ExecuteBlock(context.Background(), block))
			assert.Len(t, f.engine.Calls, 0)
			assert.Len(t, f.hub.Calls, 0)
			assert.Len(t, f.store.Calls, 0)
		})
	}
}

func TestExecuteBlockStaleParentChainBlockInfo(t *testing.T) {
	f := newFixture(t)
	cached := types.GetRandomParentChainBlockInfo()
	claimed := &types.ParentChainBlockInfo{}
	*claimed = *cached
	claimed.Height--

	block := newTestBlock(types.GetRandomHash(), types.Txs{types.GetRandomTx(), types.GetRandomCrossChainTx(claimed)}, types.Hash{})
	f.cc.On("TryGetParentChainBlockInfo", mock.Anything).Return(cached, nil).Once()

	assert.Equal(t, InvalidParentChainBlockInfo, f.exec.ExecuteBlock(context.Background(), block))
	assert.Len(t, f.engine.Calls, 0)
	assert.Len(t, f.store.Calls, 0)
	assert.Nil(t, block.ParentChainBlockInfo)
}

func TestExecuteBlockCrossChain(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	cached := types.GetRandomParentChainBlockInfo()
	claimed := &types.ParentChainBlockInfo{}
	*claimed = *cached
	side := types.GetRandomSideChainBlockInfo()

	txs := types.Txs{types.GetRandomTx(), types.GetRandomCrossChainTx(claimed)}
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces), side)

	f.cc.On("CheckSideChainBlockInfo", mock.Anything, side).Return(true, nil).Once()
	f.cc.On("TryGetParentChainBlockInfo", mock.Anything).Return(cached, nil).Once()
	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	f.cc.On("TryUpdateAndRemoveSideChainBlockInfo", mock.Anything, side).Return(true, nil).Once()
	f.cc.On("UpdateParentChainBlockInfo", mock.Anything, claimed).Return(true, nil).Once()
	f.expectCommit(block)

	require.Equal(Success, f.exec.ExecuteBlock(context.Background(), block))
	require.True(cached.Equal(block.ParentChainBlockInfo))
}

func TestExecuteBlockCrossChainClientShutDown(t *testing.T) {
	f := newFixture(t)

	side := types.GetRandomSideChainBlockInfo()
	claimed := types.GetRandomParentChainBlockInfo()
	txs := types.Txs{types.GetRandomCrossChainTx(claimed)}
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces), side)

	f.cc.On("CheckSideChainBlockInfo", mock.Anything, side).Return(false, types.ErrClientShutDown).Once()
	f.cc.On("TryGetParentChainBlockInfo", mock.Anything).Return(nil, types.ErrClientShutDown).Once()
	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	f.cc.On("TryUpdateAndRemoveSideChainBlockInfo", mock.Anything, side).Return(false, types.ErrClientShutDown).Once()
	f.cc.On("UpdateParentChainBlockInfo", mock.Anything, claimed).Return(false, types.ErrClientShutDown).Maybe()
	f.expectCommit(block)

	assert.Equal(t, Success, f.exec.ExecuteBlock(context.Background(), block))
}

func TestExecuteBlockIncorrectStateMerkleTree(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	txs := randomTxs(3)
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, types.GetRandomHash())

	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	f.expectRollback(block, txs.Hashes(), nil)

	require.Equal(IncorrectStateMerkleTree, f.exec.ExecuteBlock(context.Background(), block))
	f.assertNothingPersisted(t)
	f.store.AssertNotCalled(t, "AddTransactionsMerkleTree", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBlockPartialFailure(t *testing.T) {
	t.Run("root matches", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)

		txs := randomTxs(2)
		traces := tracesFor(txs, 1)
		block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

		f.expectReceipts(txs, true)
		f.expectExecute(block, traces, nil)
		persisted := f.expectCommit(block)

		require.Equal(Success, f.exec.ExecuteBlock(context.Background(), block))
		statuses := make(map[types.Hash]types.Status)
		for _, r := range *persisted {
			statuses[r.TransactionID] = r.Status
		}
		require.Equal(types.StatusMined, statuses[txs[0].Hash()])
		require.Equal(types.StatusFailed, statuses[txs[1].Hash()])
		f.store.AssertNotCalled(t, "RollbackStateForTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("root mismatch", func(t *testing.T) {
		f := newFixture(t)

		txs := randomTxs(2)
		traces := tracesFor(txs, 1)
		block := newTestBlock(types.GetRandomHash(), txs, types.GetRandomHash())

		f.expectReceipts(txs, true)
		f.expectExecute(block, traces, nil)
		f.expectRollback(block, []types.Hash{txs[0].Hash()}, nil)

		assert.Equal(t, IncorrectStateMerkleTree, f.exec.ExecuteBlock(context.Background(), block))
		f.assertNothingPersisted(t)
	})
}

func TestExecuteBlockNoMinedTxsSkipsRollback(t *testing.T) {
	f := newFixture(t)

	txs := randomTxs(2)
	traces := tracesFor(txs, 0, 1)
	block := newTestBlock(types.GetRandomHash(), txs, types.GetRandomHash())

	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)

	assert.Equal(t, IncorrectStateMerkleTree, f.exec.ExecuteBlock(context.Background(), block))
	f.store.AssertNotCalled(t, "RollbackStateForTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBlockFaults(t *testing.T) {
	cases := []struct {
		name string
		// setup returns the ids expected to be rolled back
		setup func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash
	}{
		{
			name: "not executable",
			setup: func(f *fixture, block *types.Block, _ []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, false)
				return nil
			},
		},
		{
			name: "receipts error",
			setup: func(f *fixture, block *types.Block, _ []*types.Trace) []types.Hash {
				f.hub.On("GetReceiptsFor", mock.Anything, block.Body.Transactions).Return(nil, errors.New("hub unavailable")).Once()
				return nil
			},
		},
		{
			name: "engine error with partial traces",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, traces[:1], errors.New("vm crashed"))
				return []types.Hash{traces[0].TransactionID}
			},
		},
		{
			name: "missing trace",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, traces[1:], nil)
				return []types.Hash{traces[1].TransactionID}
			},
		},
		{
			name: "unknown trace",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				stray := &types.Trace{TransactionID: types.GetRandomHash()}
				f.expectExecute(block, append([]*types.Trace{stray}, traces...), nil)
				return []types.Hash{stray.TransactionID, traces[0].TransactionID, traces[1].TransactionID}
			},
		},
		{
			name: "duplicate trace",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, []*types.Trace{traces[0], traces[0]}, nil)
				return []types.Hash{traces[0].TransactionID, traces[0].TransactionID}
			},
		},
		{
			name: "engine panic",
			setup: func(f *fixture, block *types.Block, _ []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, nil, nil).Run(func(mock.Arguments) {
					panic("nil map")
				})
				return nil
			},
		},
		{
			name: "result write fails",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, traces, nil)
				f.expectTrees(block)
				f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Return(errors.New("disk full")).Times(2)
				return block.Body.Transactions.Hashes()
			},
		},
		{
			name: "append fails",
			setup: func(f *fixture, block *types.Block, traces []*types.Trace) []types.Hash {
				f.expectReceipts(block.Body.Transactions, true)
				f.expectExecute(block, traces, nil)
				f.expectTrees(block)
				f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Return(nil).Times(2)
				f.store.On("AppendBlocks", mock.Anything, block.ChainID(), []*types.Block{block}).Return(errors.New("height gap")).Once()
				return block.Body.Transactions.Hashes()
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			txs := randomTxs(2)
			traces := tracesFor(txs)
			block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces))

			reverted := tc.setup(f, block, traces)
			if len(reverted) > 0 {
				f.expectRollback(block, reverted, nil)
			}

			assert.Equal(t, Failed, f.exec.ExecuteBlock(context.Background(), block))
			if len(reverted) == 0 {
				f.store.AssertNotCalled(t, "RollbackStateForTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestExecuteBlockCorruptCrossChainIndex(t *testing.T) {
	f := newFixture(t)

	side := types.GetRandomSideChainBlockInfo()
	txs := randomTxs(1)
	traces := tracesFor(txs)
	block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces), side)

	f.cc.On("CheckSideChainBlockInfo", mock.Anything, side).Return(true, nil).Once()
	f.expectReceipts(txs, true)
	f.expectExecute(block, traces, nil)
	f.expectTrees(block)
	f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Return(nil).Once()
	f.cc.On("TryUpdateAndRemoveSideChainBlockInfo", mock.Anything, side).Return(false, nil).Once()
	f.expectRollback(block, txs.Hashes(), nil)

	assert.Equal(t, Failed, f.exec.ExecuteBlock(context.Background(), block))
	f.store.AssertNotCalled(t, "AppendBlocks", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBlockCrossChainIndexAdvancesAfterWrites(t *testing.T) {
	setup := func(f *fixture) (*types.Block, *types.SideChainBlockInfo) {
		side := types.GetRandomSideChainBlockInfo()
		txs := randomTxs(1)
		traces := tracesFor(txs)
		block := newTestBlock(types.GetRandomHash(), txs, stateRoot(traces), side)

		f.cc.On("CheckSideChainBlockInfo", mock.Anything, side).Return(true, nil).Once()
		f.expectReceipts(txs, true)
		f.expectExecute(block, traces, nil)
		f.expectTrees(block)
		f.expectRollback(block, txs.Hashes(), nil)
		return block, side
	}

	t.Run("result write fails", func(t *testing.T) {
		f := newFixture(t)
		block, _ := setup(f)
		f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		assert.Equal(t, Failed, f.exec.ExecuteBlock(context.Background(), block))
		f.cc.AssertNotCalled(t, "TryUpdateAndRemoveSideChainBlockInfo", mock.Anything, mock.Anything)
		for _, line := range f.logger.ErrLines {
			assert.NotContains(t, line, "consumed by uncommitted block")
		}
	})

	t.Run("append fails", func(t *testing.T) {
		f := newFixture(t)
		block, side := setup(f)
		f.store.On("AddTransactionResult", mock.Anything, mock.Anything).Return(nil).Once()
		f.cc.On("TryUpdateAndRemoveSideChainBlockInfo", mock.Anything, side).Return(true, nil).Once()
		f.store.On("AppendBlocks", mock.Anything, block.ChainID(), []*types.Block{block}).Return(errors.New("height gap")).Once()

		assert.Equal(t, Failed, f.exec.ExecuteBlock(context.Background(), block))
		assert.Contains(t, f.logger.ErrLines, fmt.Sprint("side chain block info consumed by uncommitted block", "info", side))
	})
}

func TestExecuteBlockRollbackFailure(t *testing.T) {
	setup := func(f *fixture) *types.Block {
		txs := randomTxs(1)
		block := newTestBlock(types.GetRandomHash(), txs, types.GetRandomHash())
		f.expectReceipts(txs, true)
		f.expectExecute(block, tracesFor(txs), nil)
		f.expectRollback(block, txs.Hashes(), errors.New("io error"))
		return block
	}

	t.Run("error channel", func(t *testing.T) {
		require := require.New(t)
		errCh := make(chan error, 1)
		f := newFixture(t, WithErrorChannel(errCh))
		block := setup(f)

		require.Equal(IncorrectStateMerkleTree, f.exec.ExecuteBlock(context.Background(), block))
		require.Len(errCh, 1)

		var rbErr *RollbackError
		require.ErrorAs(<-errCh, &rbErr)
		require.Equal(block.ChainID(), rbErr.ChainID)
		require.Equal(block.Index(), rbErr.BlockIndex)
	})

	t.Run("no channel", func(t *testing.T) {
		f := newFixture(t)
		block := setup(f)

		assert.Panics(t, func() {
			f.exec.ExecuteBlock(context.Background(), block)
		})
	})
}

func TestExecuteBlockSerializesChain(t *testing.T) {
	f := newFixture(t)
	chainID := types.GetRandomHash()

	var inFlight, maxInFlight int32
	track := func(mock.Arguments) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	blocks := make([]*types.Block, 3)
	for i := range blocks {
		txs := randomTxs(1)
		blocks[i] = newTestBlock(chainID, txs, types.GetRandomHash())
		f.expectReceipts(txs, true)
		f.expectExecute(blocks[i], tracesFor(txs, 0), nil).Run(track)
	}

	var wg sync.WaitGroup
	for _, block := range blocks {
		wg.Add(1)
		go func(block *types.Block) {
			defer wg.Done()
			assert.Equal(t, IncorrectStateMerkleTree, f.exec.ExecuteBlock(context.Background(), block))
		}(block)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestFinishInitialSync(t *testing.T) {
	f := newFixture(t)
	f.cc.On("UpdateRequestInterval", config.DefaultConfig().CrossChainRequestInterval).Once()
	f.exec.FinishInitialSync()
}
