package execution

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/rollkit/blockexec/types"
)

// insertResults stamps results with the block they belong to and writes them
// with at most limit writes in flight. Every write is attempted; the errors
// of all failed writes are returned together.
func insertResults(ctx context.Context, store ResultStore, block *types.Block, results []*types.TransactionResult, limit int) error {
	index, hash := block.Index(), block.Hash()

	var (
		mtx  sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, r := range results {
		r := r
		r.BlockNumber = index
		r.BlockHash = hash
		g.Go(func() error {
			if err := store.AddTransactionResult(gctx, r); err != nil {
				mtx.Lock()
				errs = multierr.Append(errs, fmt.Errorf("tx %s: %w", r.TransactionID, err))
				mtx.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if errs != nil {
		return fmt.Errorf("failed to save transaction results: %w", errs)
	}
	return nil
}
