package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ds "github.com/ipfs/go-datastore"

	"github.com/rollkit/blockexec/types"
)

var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = ds.ErrNotFound
	// ErrHeightMismatch is returned when appended blocks are not consecutive.
	ErrHeightMismatch = errors.New("block height does not follow chain height")
	// ErrPreviousHashMismatch is returned when an appended block does not link to the chain tip.
	ErrPreviousHashMismatch = errors.New("previous block hash does not match chain tip")
)

// DefaultStore is a default store implementation.
type DefaultStore struct {
	db ds.Batching

	// chainMtx serializes read-modify-write of chain heights
	chainMtx sync.Mutex
	// stateMtx guards world state against reads during delta application and rollback
	stateMtx sync.RWMutex
}

var _ Store = &DefaultStore{}

// New returns new, default store.
func New(ds ds.Batching) *DefaultStore {
	return &DefaultStore{
		db: ds,
	}
}

// Close safely closes underlying data storage, to ensure that data is actually saved.
func (s *DefaultStore) Close() error {
	return s.db.Close()
}

// Height returns height of the highest block saved for the chain.
func (s *DefaultStore) Height(ctx context.Context, chainID types.Hash) (uint64, error) {
	height, _, err := s.height(ctx, chainID)
	return height, err
}

func (s *DefaultStore) height(ctx context.Context, chainID types.Hash) (uint64, bool, error) {
	heightBytes, err := s.db.Get(ctx, ds.NewKey(getHeightKey(chainID)))
	if errors.Is(err, ds.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get height: %w", err)
	}
	height, err := decodeHeight(heightBytes)
	if err != nil {
		return 0, false, err
	}
	return height, true, nil
}

// LastBlockHash returns the hash of the chain tip, or the zero hash for an empty chain.
func (s *DefaultStore) LastBlockHash(ctx context.Context, chainID types.Hash) (types.Hash, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(getLastHashKey(chainID)))
	if errors.Is(err, ds.ErrNotFound) {
		return types.ZeroHash, nil
	}
	if err != nil {
		return types.ZeroHash, fmt.Errorf("failed to get last block hash: %w", err)
	}
	var h types.Hash
	if len(blob) != types.HashLength {
		return h, types.ErrInvalidHashLength
	}
	copy(h[:], blob)
	return h, nil
}

// AppendBlocks saves blocks and advances the chain tip. The first block of a
// chain may have any index; every later block must extend the tip.
func (s *DefaultStore) AppendBlocks(ctx context.Context, chainID types.Hash, blocks []*types.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	s.chainMtx.Lock()
	defer s.chainMtx.Unlock()

	height, hasBlocks, err := s.height(ctx, chainID)
	if err != nil {
		return err
	}
	lastHash, err := s.LastBlockHash(ctx, chainID)
	if err != nil {
		return err
	}

	for _, block := range blocks {
		if err := block.ValidateBasic(); err != nil {
			return err
		}
		if block.ChainID() != chainID {
			return fmt.Errorf("block of chain %s appended to chain %s", block.ChainID(), chainID)
		}
		if hasBlocks {
			if block.Index() != height+1 {
				return fmt.Errorf("%w: got %d, expected %d", ErrHeightMismatch, block.Index(), height+1)
			}
			if block.Header.PreviousBlockHash != lastHash {
				return fmt.Errorf("%w: got %s, expected %s", ErrPreviousHashMismatch, block.Header.PreviousBlockHash, lastHash)
			}
		}
		height, lastHash, hasBlocks = block.Index(), block.Hash(), true
	}

	batch, err := s.db.Batch(ctx)
	if err != nil {
		return fmt.Errorf("failed to create a new batch: %w", err)
	}
	for _, block := range blocks {
		blob, err := block.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal Block to binary: %w", err)
		}
		if err := batch.Put(ctx, ds.NewKey(getBlockKey(chainID, block.Index())), blob); err != nil {
			return fmt.Errorf("failed to put block blob in batch: %w", err)
		}
		if err := batch.Put(ctx, ds.NewKey(getIndexKey(chainID, block.Hash())), encodeHeight(block.Index())); err != nil {
			return fmt.Errorf("failed to put index key in batch: %w", err)
		}
	}

	if err := batch.Put(ctx, ds.NewKey(getHeightKey(chainID)), encodeHeight(height)); err != nil {
		return fmt.Errorf("failed to put height in batch: %w", err)
	}
	if err := batch.Put(ctx, ds.NewKey(getLastHashKey(chainID)), lastHash.Bytes()); err != nil {
		return fmt.Errorf("failed to put last block hash in batch: %w", err)
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// GetBlock returns block at given height, or error if it's not found in Store.
func (s *DefaultStore) GetBlock(ctx context.Context, chainID types.Hash, height uint64) (*types.Block, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(getBlockKey(chainID, height)))
	if err != nil {
		return nil, fmt.Errorf("failed to load block %d: %w", height, err)
	}
	block := new(types.Block)
	if err := block.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return block, nil
}

// GetBlockByHash returns block with given hash, or error if it's not found in Store.
func (s *DefaultStore) GetBlockByHash(ctx context.Context, chainID types.Hash, hash types.Hash) (*types.Block, error) {
	heightBytes, err := s.db.Get(ctx, ds.NewKey(getIndexKey(chainID, hash)))
	if err != nil {
		return nil, fmt.Errorf("failed to get height for hash %s: %w", hash, err)
	}
	height, err := decodeHeight(heightBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode height: %w", err)
	}
	return s.GetBlock(ctx, chainID, height)
}
