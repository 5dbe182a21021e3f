package store

import (
	"context"

	"github.com/rollkit/blockexec/types"
)

// Store persists blocks, transaction results, merkle trees and world state
// for any number of chains.
type Store interface {
	// Height returns the height of the highest block appended to the chain.
	// It returns 0 for a chain without blocks.
	Height(ctx context.Context, chainID types.Hash) (uint64, error)
	// LastBlockHash returns the hash of the highest block of the chain.
	LastBlockHash(ctx context.Context, chainID types.Hash) (types.Hash, error)

	// AppendBlocks appends consecutive blocks to the chain and advances its height
	// and last block hash in a single batch.
	AppendBlocks(ctx context.Context, chainID types.Hash, blocks []*types.Block) error
	// GetBlock returns the block at given height, or error if it's not found in Store.
	GetBlock(ctx context.Context, chainID types.Hash, height uint64) (*types.Block, error)
	// GetBlockByHash returns the block with given hash, or error if it's not found in Store.
	GetBlockByHash(ctx context.Context, chainID types.Hash, hash types.Hash) (*types.Block, error)

	// AddTransactionResult saves a result keyed by its transaction id.
	AddTransactionResult(ctx context.Context, result *types.TransactionResult) error
	// GetTransactionResult returns the result saved for txID.
	GetTransactionResult(ctx context.Context, txID types.Hash) (*types.TransactionResult, error)

	AddTransactionsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error
	AddSideChainTransactionRootsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error
	GetTransactionsMerkleTree(ctx context.Context, chainID types.Hash, height uint64) (*types.BinaryMerkleTree, error)
	GetSideChainTransactionRootsMerkleTree(ctx context.Context, chainID types.Hash, height uint64) (*types.BinaryMerkleTree, error)

	// GetState returns the world state value of key.
	GetState(ctx context.Context, chainID types.Hash, key string) ([]byte, error)
	// ApplyTransactionDelta applies the changes of one transaction and records
	// the delta needed to revert them.
	ApplyTransactionDelta(ctx context.Context, chainID, disambiguationHash, txID types.Hash, changes []types.StateChange) (*types.StateDelta, error)
	// ListDeltas returns the ids of transactions with a recorded delta under
	// disambiguationHash, in application order.
	ListDeltas(ctx context.Context, chainID types.Hash, disambiguationHash types.Hash) ([]types.Hash, error)
	// RollbackStateForTransactions reverts the recorded deltas of txIDs.
	// Transactions without a recorded delta are skipped, so the call is idempotent.
	RollbackStateForTransactions(ctx context.Context, chainID types.Hash, txIDs []types.Hash, disambiguationHash types.Hash) error

	// Close safely closes underlying data storage, to ensure that data is actually saved.
	Close() error
}
