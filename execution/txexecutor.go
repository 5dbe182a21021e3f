package execution

import (
	"context"
	"fmt"

	"github.com/rollkit/blockexec/types"
)

// transactionExecutor dispatches transactions to the engine and turns the
// traces into results in block order.
type transactionExecutor struct {
	engine Engine
}

// execute returns one result per tx, in the order of txs. On error the
// results of already reported transactions are returned with it so that
// mined ones can be rolled back.
func (x *transactionExecutor) execute(ctx context.Context, txs types.Txs, chainID, disambiguationHash types.Hash) ([]*types.TransactionResult, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	traces, execErr := x.engine.Execute(ctx, txs, chainID, disambiguationHash)
	results := make([]*types.TransactionResult, 0, len(traces))
	for _, trace := range traces {
		if trace == nil {
			continue
		}
		results = append(results, types.NewTransactionResult(trace))
	}
	if execErr != nil {
		return results, fmt.Errorf("engine failed to execute transactions: %w", execErr)
	}

	sorted, err := sortToOriginalOrder(results, txs.Hashes())
	if err != nil {
		return results, err
	}
	return sorted, nil
}

// sortToOriginalOrder places every result at the position of its transaction
// id in ids.
func sortToOriginalOrder(results []*types.TransactionResult, ids []types.Hash) ([]*types.TransactionResult, error) {
	index := make(map[types.Hash]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	sorted := make([]*types.TransactionResult, len(ids))
	for _, r := range results {
		i, ok := index[r.TransactionID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTrace, r.TransactionID)
		}
		if sorted[i] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTrace, r.TransactionID)
		}
		sorted[i] = r
	}
	for i, r := range sorted {
		if r == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingTrace, ids[i])
		}
	}
	return sorted, nil
}
