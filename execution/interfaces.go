package execution

import (
	"context"
	"time"

	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/types"
)

// Engine runs transactions against the world state of a chain.
type Engine interface {
	// Execute runs txs and returns one trace per transaction, in any order.
	// Changes of transactions reported without StdErr are applied under
	// disambiguationHash so they can be rolled back. When an error is
	// returned, traces of the transactions already applied must still be
	// returned with it.
	Execute(ctx context.Context, txs types.Txs, chainID types.Hash, disambiguationHash types.Hash) ([]*types.Trace, error)
}

// TxHub knows which transactions may be executed.
type TxHub interface {
	GetReceiptsFor(ctx context.Context, txs types.Txs) ([]*types.Receipt, error)
}

// CrossChainClient serves locally cached parent and side chain data.
type CrossChainClient interface {
	// CheckSideChainBlockInfo reports whether info matches the next pending block of its side chain.
	CheckSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error)
	// TryGetParentChainBlockInfo returns the cached parent chain block info, or nil when none is cached.
	TryGetParentChainBlockInfo(ctx context.Context) (*types.ParentChainBlockInfo, error)
	// TryUpdateAndRemoveSideChainBlockInfo advances the side chain of info past it.
	TryUpdateAndRemoveSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error)
	// UpdateParentChainBlockInfo commits info as the last known parent chain block.
	UpdateParentChainBlockInfo(ctx context.Context, info *types.ParentChainBlockInfo) (bool, error)
	// UpdateRequestInterval changes how often remote chains are polled.
	UpdateRequestInterval(interval time.Duration)
}

// ChainStore appends blocks and reverts world state.
type ChainStore interface {
	AppendBlocks(ctx context.Context, chainID types.Hash, blocks []*types.Block) error
	RollbackStateForTransactions(ctx context.Context, chainID types.Hash, txIDs []types.Hash, disambiguationHash types.Hash) error
	Height(ctx context.Context, chainID types.Hash) (uint64, error)
	LastBlockHash(ctx context.Context, chainID types.Hash) (types.Hash, error)
}

// ResultStore persists transaction results.
type ResultStore interface {
	AddTransactionResult(ctx context.Context, result *types.TransactionResult) error
}

// MerkleTreeStore persists the merkle trees of a block body.
type MerkleTreeStore interface {
	AddTransactionsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error
	AddSideChainTransactionRootsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error
}

// Publisher hands events to their subscribers. It must not block.
type Publisher interface {
	Publish(e events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
