package types

import (
	cryptoRand "crypto/rand"
	"math/rand"
	"time"
)

// GetRandomBytes returns a byte slice of random bytes of length n.
// It uses crypto/rand for cryptographically secure random number generation.
func GetRandomBytes(n uint) []byte {
	data := make([]byte, n)
	if _, err := cryptoRand.Read(data); err != nil {
		panic(err)
	}
	return data
}

// GetRandomHash returns a random hash.
func GetRandomHash() Hash {
	var h Hash
	copy(h[:], GetRandomBytes(HashLength))
	return h
}

// GetRandomTx returns a random normal transaction.
func GetRandomTx() *Transaction {
	return &Transaction{
		From:        GetRandomBytes(20),
		To:          GetRandomBytes(20),
		IncrementID: rand.Uint64(), //nolint:gosec
		MethodName:  "Transfer",
		Params:      GetRandomBytes(16),
		Type:        TxTypeNormal,
		Time:        time.Now().UnixNano(),
	}
}

// GetRandomCrossChainTx returns a cross chain block info transaction carrying info.
func GetRandomCrossChainTx(info *ParentChainBlockInfo) *Transaction {
	params, err := PackParams(info)
	if err != nil {
		panic(err)
	}
	tx := GetRandomTx()
	tx.MethodName = "RecordParentChainBlockInfo"
	tx.Params = params
	tx.Type = TxTypeCrossChainBlockInfo
	return tx
}

// GetRandomParentChainBlockInfo returns a random parent chain block info.
func GetRandomParentChainBlockInfo() *ParentChainBlockInfo {
	return &ParentChainBlockInfo{
		ChainID:                   GetRandomHash(),
		Height:                    uint64(rand.Int63()), //nolint:gosec
		SideChainTransactionsRoot: GetRandomHash(),
		SideChainBlockHeadersRoot: GetRandomHash(),
	}
}

// GetRandomSideChainBlockInfo returns a random side chain block info.
func GetRandomSideChainBlockInfo() *SideChainBlockInfo {
	return &SideChainBlockInfo{
		ChainID:           GetRandomHash(),
		Height:            uint64(rand.Int63()), //nolint:gosec
		BlockHeaderHash:   GetRandomHash(),
		TransactionMKRoot: GetRandomHash(),
	}
}

// GetRandomBlock returns a block at the given index with nTxs normal
// transactions. The world state commitment is left for the caller to set.
func GetRandomBlock(chainID Hash, index uint64, nTxs int) *Block {
	txs := make(Txs, nTxs)
	for i := range txs {
		txs[i] = GetRandomTx()
	}
	return NewBlock(chainID, index, GetRandomHash(), txs, nil)
}

// NewBlock assembles a block and fills its transaction commitments.
func NewBlock(chainID Hash, index uint64, prev Hash, txs Txs, indexed []*SideChainBlockInfo) *Block {
	body := &Body{
		Transactions: txs,
		IndexedInfo:  indexed,
	}
	return &Block{
		Header: &Header{
			ChainID:                      chainID,
			Index:                        index,
			PreviousBlockHash:            prev,
			MerkleTreeRootOfTransactions: body.CalculateMerkleTreeRoots(),
			Time:                         time.Now().UnixNano(),
		},
		Body: body,
	}
}
