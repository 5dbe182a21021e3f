package store

import (
	"context"
	"fmt"

	ds "github.com/ipfs/go-datastore"

	"github.com/rollkit/blockexec/types"
)

// AddTransactionsMerkleTree saves the merkle tree over a block's own transactions.
func (s *DefaultStore) AddTransactionsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error {
	return s.putTree(ctx, getTxTreeKey(chainID, height), tree)
}

// AddSideChainTransactionRootsMerkleTree saves the merkle tree over the side
// chain transaction roots indexed by a block.
func (s *DefaultStore) AddSideChainTransactionRootsMerkleTree(ctx context.Context, tree *types.BinaryMerkleTree, chainID types.Hash, height uint64) error {
	return s.putTree(ctx, getSideTreeKey(chainID, height), tree)
}

// GetTransactionsMerkleTree returns the transactions merkle tree of the block at height.
func (s *DefaultStore) GetTransactionsMerkleTree(ctx context.Context, chainID types.Hash, height uint64) (*types.BinaryMerkleTree, error) {
	return s.getTree(ctx, getTxTreeKey(chainID, height))
}

// GetSideChainTransactionRootsMerkleTree returns the side chain transaction roots merkle tree of the block at height.
func (s *DefaultStore) GetSideChainTransactionRootsMerkleTree(ctx context.Context, chainID types.Hash, height uint64) (*types.BinaryMerkleTree, error) {
	return s.getTree(ctx, getSideTreeKey(chainID, height))
}

func (s *DefaultStore) putTree(ctx context.Context, key string, tree *types.BinaryMerkleTree) error {
	if tree == nil {
		tree = new(types.BinaryMerkleTree)
	}
	blob, err := tree.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal merkle tree: %w", err)
	}
	if err := s.db.Put(ctx, ds.NewKey(key), blob); err != nil {
		return fmt.Errorf("failed to put merkle tree %s: %w", key, err)
	}
	return nil
}

func (s *DefaultStore) getTree(ctx context.Context, key string) (*types.BinaryMerkleTree, error) {
	blob, err := s.db.Get(ctx, ds.NewKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to load merkle tree %s: %w", key, err)
	}
	tree := new(types.BinaryMerkleTree)
	if err := tree.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merkle tree: %w", err)
	}
	return tree, nil
}
