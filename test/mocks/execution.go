package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/types"
)

// Engine is a mock implementation of the execution.Engine interface.
type Engine struct {
	mock.Mock
}

// Execute mock implementation.
func (m *Engine) Execute(ctx context.Context, txs types.Txs, chainID types.Hash, disambiguationHash types.Hash) ([]*types.Trace, error) {
	args := m.Called(ctx, txs, chainID, disambiguationHash)
	var traces []*types.Trace
	if ret := args.Get(0); ret != nil {
		traces = ret.([]*types.Trace)
	}
	return traces, args.Error(1)
}

// TxHub is a mock implementation of the execution.TxHub interface.
type TxHub struct {
	mock.Mock
}

// GetReceiptsFor mock implementation.
func (m *TxHub) GetReceiptsFor(ctx context.Context, txs types.Txs) ([]*types.Receipt, error) {
	args := m.Called(ctx, txs)
	var receipts []*types.Receipt
	if ret := args.Get(0); ret != nil {
		receipts = ret.([]*types.Receipt)
	}
	return receipts, args.Error(1)
}

// CrossChainClient is a mock implementation of the execution.CrossChainClient interface.
type CrossChainClient struct {
	mock.Mock
}

// CheckSideChainBlockInfo mock implementation.
func (m *CrossChainClient) CheckSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error) {
	args := m.Called(ctx, info)
	return args.Bool(0), args.Error(1)
}

// TryGetParentChainBlockInfo mock implementation.
func (m *CrossChainClient) TryGetParentChainBlockInfo(ctx context.Context) (*types.ParentChainBlockInfo, error) {
	args := m.Called(ctx)
	var info *types.ParentChainBlockInfo
	if ret := args.Get(0); ret != nil {
		info = ret.(*types.ParentChainBlockInfo)
	}
	return info, args.Error(1)
}

// TryUpdateAndRemoveSideChainBlockInfo mock implementation.
func (m *CrossChainClient) TryUpdateAndRemoveSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error) {
	args := m.Called(ctx, info)
	return args.Bool(0), args.Error(1)
}

// UpdateParentChainBlockInfo mock implementation.
func (m *CrossChainClient) UpdateParentChainBlockInfo(ctx context.Context, info *types.ParentChainBlockInfo) (bool, error) {
	args := m.Called(ctx, info)
	return args.Bool(0), args.Error(1)
}

// UpdateRequestInterval mock implementation.
func (m *CrossChainClient) UpdateRequestInterval(interval time.Duration) {
	m.Called(interval)
}

// Store is a mock implementation of the execution.ChainStore, ResultStore
// and MerkleTreeStore interfaces.
type Store struct {
	mock.Mock
}

// AppendBlocks mock implementation.
func (m *Store) AppendBlocks(ctx context.Context, chainID types.Hash, blocks []*types.Block) error {
	return m.Called(ctx, chainID, blocks).Error(0)
}

// RollbackStateForTransactions mock implementation.
func (m *Store) RollbackStateForTransactions(ctx context.Context, chainID types.Hash, txIDs []types.Hash, disambiguationHash types.Hash) error {
	return m.Called(ctx, chainID, txIDs, disambiguationHash).Error(0)
}

// Height mock implementation.
func (m *Store) Height(ctx context.Context, chainID types.Hash) (uint64, error) {
	args := m.Called(ctx, chainID)
	return args.Get(0).(uint64), args.Error(1)
}

// LastBlockHash mock implementation.
func (m *Store) LastBlockHash(ctx context.Context, chainID types.Hash) (types.Hash, error) {
	args := m.Called(ctx, chainID)
	return args.Get(0).(types.Hash), args.Error(1)
}

// AddTransactionResult mock implementation.
func (m *Store) AddTransactionResult(ctx context.Context, result *types.TransactionResult) error {
	return m.Called(ctx, result).Error(0)
}

// AddTransactionsMerkleTree mock implementation.
func (m *Store) AddTransactionsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error {
	return m.Called(ctx, tree, chainID, height).Error(0)
}

// AddSideChainTransactionRootsMerkleTree mock implementation.
func (m *Store) AddSideChainTransactionRootsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error {
	return m.Called(ctx, tree, chainID, height).Error(0)
}

// Publisher is a mock implementation of the execution.Publisher interface.
type Publisher struct {
	mock.Mock
}

// Publish mock implementation.
func (m *Publisher) Publish(e events.Event) {
	m.Called(e)
}
