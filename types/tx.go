package types

// TxType discriminates how the pipeline treats a transaction.
type TxType int8

const (
	// TxTypeNormal is a regular contract call.
	TxTypeNormal TxType = iota
	// TxTypeCrossChainBlockInfo carries a ParentChainBlockInfo snapshot in its params.
	TxTypeCrossChainBlockInfo
	// TxTypeConsensus is an administrative consensus transaction.
	TxTypeConsensus
)

func (t TxType) String() string {
	switch t {
	case TxTypeNormal:
		return "normal"
	case TxTypeCrossChainBlockInfo:
		return "cross_chain_block_info"
	case TxTypeConsensus:
		return "consensus"
	default:
		return "unknown"
	}
}

// Transaction is an immutable call submitted to a chain.
type Transaction struct {
	From        Address `msgpack:"f"`
	To          Address `msgpack:"t"`
	IncrementID uint64  `msgpack:"i"`
	MethodName  string  `msgpack:"m"`
	Params      []byte  `msgpack:"p"`
	Type        TxType  `msgpack:"y"`
	// Time is the creation time in unix nanoseconds.
	Time int64 `msgpack:"ts"`
}

// Hash returns the identity of the transaction, the SHA-256 of its encoding.
func (tx *Transaction) Hash() Hash {
	// Encoding a Transaction only fails for unsupported field types, which it has none of.
	b, _ := tx.MarshalBinary()
	return HashFromBytes(b)
}

// IsCrossChainBlockInfo reports whether tx carries parent chain block info.
func (tx *Transaction) IsCrossChainBlockInfo() bool {
	return tx.Type == TxTypeCrossChainBlockInfo
}

// Txs is an ordered list of transactions.
type Txs []*Transaction

// Hashes returns the identities of txs in order.
func (txs Txs) Hashes() []Hash {
	hashes := make([]Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// CountType returns the number of transactions of the given type.
func (txs Txs) CountType(t TxType) int {
	n := 0
	for _, tx := range txs {
		if tx.Type == t {
			n++
		}
	}
	return n
}
