package store

import (
	"context"
	"fmt"

	ds "github.com/ipfs/go-datastore"

	"github.com/rollkit/blockexec/types"
)

// AddTransactionResult saves result under its transaction id. Writes for
// different transactions are independent and may run concurrently.
func (s *DefaultStore) AddTransactionResult(ctx context.Context, result *types.TransactionResult) error {
	blob, err := result.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal TransactionResult to binary: %w", err)
	}
	if err := s.db.Put(ctx, ds.NewKey(getResultKey(result.TransactionID)), blob); err != nil {
		return fmt.Errorf("failed to put result for tx %s: %w", result.TransactionID, err)
	}
	return nil
}

// GetTransactionResult returns the result saved for txID.
func (s *DefaultStore) GetTransactionResult(ctx context.Context, txID types.Hash) (*types.TransactionResult, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(getResultKey(txID)))
	if err != nil {
		return nil, fmt.Errorf("failed to load result for tx %s: %w", txID, err)
	}
	result := new(types.TransactionResult)
	if err := result.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return result, nil
}
