package execution

import (
	"context"
	"errors"
	"time"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// transactionCollector extracts the transactions of a block and validates its
// cross chain block info transaction.
type transactionCollector struct {
	crossChain CrossChainClient
	timeout    time.Duration
	logger     log.Logger
}

// collect returns the block transactions in order. The accepted parent chain
// block info, if any, is attached to block. Rejections are *InvalidBlockError.
func (c *transactionCollector) collect(ctx context.Context, block *types.Block) (types.Txs, error) {
	txs := block.Body.Transactions
	ready := make(types.Txs, 0, len(txs))

	var (
		count   int
		invalid error
		info    *types.ParentChainBlockInfo
	)
	for _, tx := range txs {
		if tx.IsCrossChainBlockInfo() {
			count++
			claimed, err := types.UnpackParentChainBlockInfo(tx)
			switch {
			case err != nil:
				if invalid == nil {
					invalid = invalidBlock(InvalidParentChainBlockInfo, "failed to unpack parent chain block info of tx %s: %v", tx.Hash(), err)
				}
			case invalid == nil:
				if err := c.validateParentChainBlockInfo(ctx, claimed); err != nil {
					if !isInvalidBlock(err) {
						return nil, err
					}
					invalid = err
				} else {
					info = claimed
				}
			}
		}
		ready = append(ready, tx)
	}

	if count > 1 {
		return nil, invalidBlock(TooManyTxsForParentChainBlock, "%d transactions record parent chain block info", count)
	}
	if invalid != nil {
		return nil, invalid
	}
	block.ParentChainBlockInfo = info
	return ready, nil
}

// validateParentChainBlockInfo compares claimed with the cached parent chain
// block info. A shut down client cannot be consulted and lets the claim pass.
// Context errors are returned as is so cancellation is not reported as a
// rejection.
func (c *transactionCollector) validateParentChainBlockInfo(ctx context.Context, claimed *types.ParentChainBlockInfo) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cached, err := c.crossChain.TryGetParentChainBlockInfo(callCtx)
	switch {
	case errors.Is(err, types.ErrClientShutDown):
		c.logger.Debug("cross chain client is shut down, skipping parent chain block info validation")
		return nil
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		c.logger.Error("parent chain block info validation failed", "error", err)
		return invalidBlock(InvalidParentChainBlockInfo, "parent chain block info validation failed: %v", err)
	case cached == nil:
		c.logger.Warn("no cached parent chain block info")
		return invalidBlock(InvalidParentChainBlockInfo, "no cached parent chain block info, claimed %s", claimed)
	case !cached.Equal(claimed):
		c.logger.Warn("parent chain block info mismatch", "cached", cached, "claimed", claimed)
		return invalidBlock(InvalidParentChainBlockInfo, "cached %s, claimed %s", cached, claimed)
	}
	return nil
}

func isInvalidBlock(err error) bool {
	var invalid *InvalidBlockError
	return errors.As(err, &invalid)
}
