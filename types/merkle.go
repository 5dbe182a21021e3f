package types

import (
	"github.com/tendermint/tendermint/crypto/merkle"
)

// BinaryMerkleTree accumulates leaf hashes and computes their RFC-6962 root.
type BinaryMerkleTree struct {
	Nodes []Hash `msgpack:"n"`
	Root  Hash   `msgpack:"r"`
}

// NewBinaryMerkleTree returns a tree over the given leaves.
func NewBinaryMerkleTree(leaves ...Hash) *BinaryMerkleTree {
	return new(BinaryMerkleTree).AddNodes(leaves...)
}

// AddNodes appends leaves, in order, and returns the tree.
func (t *BinaryMerkleTree) AddNodes(leaves ...Hash) *BinaryMerkleTree {
	t.Nodes = append(t.Nodes, leaves...)
	return t
}

// ComputeRootHash computes the root over the current leaves and caches it.
// The root is position sensitive: reordering leaves changes it.
func (t *BinaryMerkleTree) ComputeRootHash() Hash {
	items := make([][]byte, len(t.Nodes))
	for i := range t.Nodes {
		items[i] = t.Nodes[i][:]
	}
	copy(t.Root[:], merkle.HashFromByteSlices(items))
	return t.Root
}

// MerkleRoot is a shorthand for NewBinaryMerkleTree(leaves...).ComputeRootHash().
func MerkleRoot(leaves ...Hash) Hash {
	return NewBinaryMerkleTree(leaves...).ComputeRootHash()
}
