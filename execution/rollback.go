package execution

import (
	"context"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// rollbackCoordinator reverts the state changes of mined transactions.
type rollbackCoordinator struct {
	chainStore ChainStore
	logger     log.Logger
}

// rollback reverts the mined results of block and returns their ids. A nil
// block or a result set without mined transactions is a no-op.
func (r *rollbackCoordinator) rollback(ctx context.Context, block *types.Block, results []*types.TransactionResult) ([]types.Hash, error) {
	if block == nil || block.Header == nil {
		return nil, nil
	}
	mined := types.MinedIDs(results)
	if len(mined) == 0 {
		return nil, nil
	}

	r.logger.Info("rolling back state", "chain", block.ChainID(), "height", block.Index(), "txs", len(mined))
	err := r.chainStore.RollbackStateForTransactions(ctx, block.ChainID(), mined, block.Header.DisambiguationHash())
	if err != nil {
		return nil, &RollbackError{ChainID: block.ChainID(), BlockIndex: block.Index(), Err: err}
	}
	return mined, nil
}
