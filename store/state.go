package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"

	"github.com/rollkit/blockexec/types"
)

// GetState returns the world state value of key, or ErrNotFound.
func (s *DefaultStore) GetState(ctx context.Context, chainID types.Hash, key string) ([]byte, error) {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.db.Get(ctx, ds.NewKey(getWorldStateKey(chainID, key)))
}

// ApplyTransactionDelta applies changes on behalf of txID and records a delta
// whose Prev values are read from the store, so the caller only supplies Key,
// Next and Deleted. The world state writes and the delta record land in one
// batch.
func (s *DefaultStore) ApplyTransactionDelta(ctx context.Context, chainID, disambiguationHash, txID types.Hash, changes []types.StateChange) (*types.StateDelta, error) {
	s.stateMtx.Lock()
	defer s.stateMtx.Unlock()

	seq, err := s.nextDeltaSeq(ctx, chainID)
	if err != nil {
		return nil, err
	}
	delta := &types.StateDelta{
		TransactionID:      txID,
		DisambiguationHash: disambiguationHash,
		Seq:                seq,
		Changes:            make([]types.StateChange, 0, len(changes)),
	}

	// pending holds values written earlier in this delta
	type pendingValue struct {
		value   []byte
		existed bool
	}
	pending := make(map[string]pendingValue)

	batch, err := s.db.Batch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new batch: %w", err)
	}
	for _, c := range changes {
		key := ds.NewKey(getWorldStateKey(chainID, c.Key))

		prev, ok := pending[c.Key]
		if !ok {
			value, err := s.db.Get(ctx, key)
			switch {
			case errors.Is(err, ds.ErrNotFound):
			case err != nil:
				return nil, fmt.Errorf("failed to read state %q: %w", c.Key, err)
			default:
				prev = pendingValue{value: value, existed: true}
			}
		}

		change := types.StateChange{
			Key:     c.Key,
			Prev:    prev.value,
			Existed: prev.existed,
			Deleted: c.Deleted,
		}
		if c.Deleted {
			err = batch.Delete(ctx, key)
			pending[c.Key] = pendingValue{}
		} else {
			change.Next = c.Next
			err = batch.Put(ctx, key, c.Next)
			pending[c.Key] = pendingValue{value: c.Next, existed: true}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stage state %q: %w", c.Key, err)
		}
		delta.Changes = append(delta.Changes, change)
	}

	blob, err := delta.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal StateDelta to binary: %w", err)
	}
	if err := batch.Put(ctx, ds.NewKey(getDeltaKey(chainID, disambiguationHash, txID)), blob); err != nil {
		return nil, fmt.Errorf("failed to put delta in batch: %w", err)
	}
	if err := batch.Put(ctx, ds.NewKey(getDeltaSeqKey(chainID)), encodeHeight(seq)); err != nil {
		return nil, fmt.Errorf("failed to put delta sequence in batch: %w", err)
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return delta, nil
}

// RollbackStateForTransactions reverts the recorded deltas of txIDs scoped to
// disambiguationHash. Deltas are undone newest first by their application
// sequence, whatever the order of txIDs, and all writes are committed in one
// batch. Transactions without a delta are skipped, which
// makes the call idempotent and a no-op for an empty set.
func (s *DefaultStore) RollbackStateForTransactions(ctx context.Context, chainID types.Hash, txIDs []types.Hash, disambiguationHash types.Hash) error {
	if len(txIDs) == 0 {
		return nil
	}

	s.stateMtx.Lock()
	defer s.stateMtx.Unlock()

	var deltas []*types.StateDelta
	for _, txID := range txIDs {
		blob, err := s.db.Get(ctx, ds.NewKey(getDeltaKey(chainID, disambiguationHash, txID)))
		if errors.Is(err, ds.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load delta of tx %s: %w", txID, err)
		}
		delta := new(types.StateDelta)
		if err := delta.UnmarshalBinary(blob); err != nil {
			return fmt.Errorf("failed to unmarshal delta of tx %s: %w", txID, err)
		}
		deltas = append(deltas, delta)
	}
	if len(deltas) == 0 {
		return nil
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Seq > deltas[j].Seq })

	// the last write per key wins inside a batch, so fold the inverses first
	final := make(map[string]*types.StateChange)
	var order []string
	for _, delta := range deltas {
		for _, c := range delta.Inverse() {
			c := c
			if _, ok := final[c.Key]; !ok {
				order = append(order, c.Key)
			}
			final[c.Key] = &c
		}
	}

	batch, err := s.db.Batch(ctx)
	if err != nil {
		return fmt.Errorf("failed to create a new batch: %w", err)
	}
	for _, key := range order {
		c := final[key]
		dsKey := ds.NewKey(getWorldStateKey(chainID, key))
		if c.Deleted {
			err = batch.Delete(ctx, dsKey)
		} else {
			err = batch.Put(ctx, dsKey, c.Next)
		}
		if err != nil {
			return fmt.Errorf("failed to stage revert of %q: %w", key, err)
		}
	}
	for _, delta := range deltas {
		if err := batch.Delete(ctx, ds.NewKey(getDeltaKey(chainID, disambiguationHash, delta.TransactionID))); err != nil {
			return fmt.Errorf("failed to stage delta removal: %w", err)
		}
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollback batch: %w", err)
	}
	return nil
}

// ListDeltas returns the ids of transactions with a recorded delta under
// disambiguationHash, in the order they were applied.
func (s *DefaultStore) ListDeltas(ctx context.Context, chainID types.Hash, disambiguationHash types.Hash) ([]types.Hash, error) {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()

	results, err := s.db.Query(ctx, dsq.Query{Prefix: getDeltaPrefix(chainID, disambiguationHash)})
	if err != nil {
		return nil, fmt.Errorf("failed to query deltas: %w", err)
	}
	entries, err := results.Rest()
	if err != nil {
		return nil, fmt.Errorf("failed to read deltas: %w", err)
	}

	deltas := make([]*types.StateDelta, 0, len(entries))
	for _, e := range entries {
		delta := new(types.StateDelta)
		if err := delta.UnmarshalBinary(e.Value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delta %s: %w", e.Key, err)
		}
		deltas = append(deltas, delta)
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Seq < deltas[j].Seq })

	ids := make([]types.Hash, len(deltas))
	for i, d := range deltas {
		ids[i] = d.TransactionID
	}
	return ids, nil
}

// nextDeltaSeq must be called with stateMtx held.
func (s *DefaultStore) nextDeltaSeq(ctx context.Context, chainID types.Hash) (uint64, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(getDeltaSeqKey(chainID)))
	if errors.Is(err, ds.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get delta sequence: %w", err)
	}
	seq, err := decodeHeight(blob)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}
