package types

import "fmt"

// ParentChainBlockInfo is a snapshot of a parent chain block as claimed by a
// cross chain block info transaction.
type ParentChainBlockInfo struct {
	ChainID                   Hash   `msgpack:"c"`
	Height                    uint64 `msgpack:"h"`
	SideChainTransactionsRoot Hash   `msgpack:"t"`
	SideChainBlockHeadersRoot Hash   `msgpack:"b"`
}

// Equal reports whether p and other describe the same parent chain block.
func (p *ParentChainBlockInfo) Equal(other *ParentChainBlockInfo) bool {
	if p == nil || other == nil {
		return p == other
	}
	return *p == *other
}

func (p *ParentChainBlockInfo) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ParentChainBlockInfo{chain: %s, height: %d, txs root: %s, headers root: %s}",
		p.ChainID, p.Height, p.SideChainTransactionsRoot, p.SideChainBlockHeadersRoot)
}

// SideChainBlockInfo describes a side chain block indexed by a block body.
type SideChainBlockInfo struct {
	ChainID           Hash   `msgpack:"c"`
	Height            uint64 `msgpack:"h"`
	BlockHeaderHash   Hash   `msgpack:"b"`
	TransactionMKRoot Hash   `msgpack:"t"`
}

// Equal reports whether s and other describe the same side chain block.
func (s *SideChainBlockInfo) Equal(other *SideChainBlockInfo) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}

func (s *SideChainBlockInfo) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("SideChainBlockInfo{chain: %s, height: %d, header: %s}", s.ChainID, s.Height, s.BlockHeaderHash)
}
