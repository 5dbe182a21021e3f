package types

import (
	"crypto/sha256"
)

// Header carries the commitments a block is verified against.
type Header struct {
	ChainID                      Hash   `msgpack:"c"`
	Index                        uint64 `msgpack:"i"`
	PreviousBlockHash            Hash   `msgpack:"p"`
	MerkleTreeRootOfTransactions Hash   `msgpack:"t"`
	MerkleTreeRootOfWorldState   Hash   `msgpack:"w"`
	// Time is the block creation time in unix nanoseconds.
	Time int64 `msgpack:"ts"`
}

// Hash returns the hash of the header, which is also the block hash.
func (h *Header) Hash() Hash {
	b, _ := h.MarshalBinary()
	return HashFromBytes(b)
}

// DisambiguationHash returns the per-block value that keeps transaction
// execution contexts unique even when transaction content repeats across blocks.
func (h *Header) DisambiguationHash() Hash {
	hasher := sha256.New()
	hasher.Write(h.ChainID[:])
	hasher.Write(encodeHeight(h.Index))
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}

// Body holds the transactions of a block and the side chain data it indexes.
type Body struct {
	Transactions Txs                   `msgpack:"x"`
	IndexedInfo  []*SideChainBlockInfo `msgpack:"s"`
	// BinaryMerkleTree is built over this block's own transaction ids.
	BinaryMerkleTree BinaryMerkleTree `msgpack:"m"`
	// BinaryMerkleTreeForSideChainTransactionRoots is built over the indexed
	// side chains' transaction roots.
	BinaryMerkleTreeForSideChainTransactionRoots BinaryMerkleTree `msgpack:"r"`
}

// TransactionsCount returns the number of transactions in the body.
func (b *Body) TransactionsCount() int {
	if b == nil {
		return 0
	}
	return len(b.Transactions)
}

// CalculateMerkleTreeRoots fills both merkle trees from the body contents and
// returns the transactions root.
func (b *Body) CalculateMerkleTreeRoots() Hash {
	b.BinaryMerkleTree = *NewBinaryMerkleTree(b.Transactions.Hashes()...)
	root := b.BinaryMerkleTree.ComputeRootHash()

	sideRoots := make([]Hash, len(b.IndexedInfo))
	for i, info := range b.IndexedInfo {
		sideRoots[i] = info.TransactionMKRoot
	}
	b.BinaryMerkleTreeForSideChainTransactionRoots = *NewBinaryMerkleTree(sideRoots...)
	b.BinaryMerkleTreeForSideChainTransactionRoots.ComputeRootHash()
	return root
}

// Block is the unit handed to the execution pipeline.
type Block struct {
	Header *Header `msgpack:"h"`
	Body   *Body   `msgpack:"b"`

	// ParentChainBlockInfo is attached by the pipeline once a cross chain block
	// info transaction has been accepted. It is never serialized.
	ParentChainBlockInfo *ParentChainBlockInfo `msgpack:"-"`
}

// Hash returns the block hash.
func (b *Block) Hash() Hash {
	return b.Header.Hash()
}

// ChainID returns the chain the block belongs to.
func (b *Block) ChainID() Hash {
	return b.Header.ChainID
}

// Index returns the height of the block.
func (b *Block) Index() uint64 {
	return b.Header.Index
}

// ValidateBasic performs structural validation of the block.
func (b *Block) ValidateBasic() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Body == nil {
		return ErrNilBody
	}
	return nil
}
