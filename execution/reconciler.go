package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// crossChainReconciler records the merkle trees of an executed block and
// advances the cross chain index past the data the block consumed. The index
// is not restored on rollback, so advanceIndex runs after every other write
// except the block append.
type crossChainReconciler struct {
	crossChain CrossChainClient
	trees      MerkleTreeStore
	timeout    time.Duration
	logger     log.Logger
}

func (r *crossChainReconciler) saveTrees(ctx context.Context, block *types.Block) error {
	chainID, height := block.ChainID(), block.Index()
	if err := r.trees.AddTransactionsMerkleTree(ctx, &block.Body.BinaryMerkleTree, chainID, height); err != nil {
		return fmt.Errorf("failed to save transactions merkle tree: %w", err)
	}
	if err := r.trees.AddSideChainTransactionRootsMerkleTree(ctx, &block.Body.BinaryMerkleTreeForSideChainTransactionRoots, chainID, height); err != nil {
		return fmt.Errorf("failed to save side chain transaction roots merkle tree: %w", err)
	}
	return nil
}

func (r *crossChainReconciler) advanceIndex(ctx context.Context, block *types.Block) error {
	for _, info := range block.Body.IndexedInfo {
		ok, err := r.call(ctx, func(ctx context.Context) (bool, error) {
			return r.crossChain.TryUpdateAndRemoveSideChainBlockInfo(ctx, info)
		})
		if errors.Is(err, types.ErrClientShutDown) {
			r.logger.Warn("cross chain client is shut down, cross chain index not updated")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to update side chain block info: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrSideChainIndexCorrupt, info)
		}
	}

	if block.ParentChainBlockInfo == nil {
		return nil
	}
	ok, err := r.call(ctx, func(ctx context.Context) (bool, error) {
		return r.crossChain.UpdateParentChainBlockInfo(ctx, block.ParentChainBlockInfo)
	})
	if errors.Is(err, types.ErrClientShutDown) {
		r.logger.Warn("cross chain client is shut down, parent chain block info not committed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update parent chain block info: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrParentChainIndexCorrupt, block.ParentChainBlockInfo)
	}
	return nil
}

// logConsumed reports the cross chain data an uncommitted block took out of the
// index. It has to be re-queued by hand before the block can be retried.
func (r *crossChainReconciler) logConsumed(block *types.Block, logger log.Logger) {
	for _, info := range block.Body.IndexedInfo {
		logger.Error("side chain block info consumed by uncommitted block", "info", info)
	}
	if block.ParentChainBlockInfo != nil {
		logger.Error("parent chain block info consumed by uncommitted block", "info", block.ParentChainBlockInfo)
	}
}

func (r *crossChainReconciler) call(ctx context.Context, fn func(context.Context) (bool, error)) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(callCtx)
}
