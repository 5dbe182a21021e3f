package types

import (
	"github.com/vmihailenco/msgpack/v5"
)

// The plain types drop the binary marshaler methods so msgpack encodes the
// struct fields instead of calling back into MarshalBinary.
type (
	plainTransaction          Transaction
	plainHeader               Header
	plainBlock                Block
	plainTransactionResult    TransactionResult
	plainMerkleTree           BinaryMerkleTree
	plainStateDelta           StateDelta
	plainParentChainBlockInfo ParentChainBlockInfo
)

// MarshalBinary encodes Transaction into binary form and returns it.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainTransaction)(tx))
}

// UnmarshalBinary decodes binary form of Transaction into object.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainTransaction)(tx))
}

// MarshalBinary encodes Header into binary form and returns it.
func (h *Header) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainHeader)(h))
}

// UnmarshalBinary decodes binary form of Header into object.
func (h *Header) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainHeader)(h))
}

// MarshalBinary encodes Block into binary form and returns it.
// The in-memory ParentChainBlockInfo is not part of the encoding.
func (b *Block) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainBlock)(b))
}

// UnmarshalBinary decodes binary form of Block into object.
func (b *Block) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainBlock)(b))
}

// MarshalBinary encodes TransactionResult into binary form and returns it.
func (r *TransactionResult) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainTransactionResult)(r))
}

// UnmarshalBinary decodes binary form of TransactionResult into object.
func (r *TransactionResult) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainTransactionResult)(r))
}

// MarshalBinary encodes BinaryMerkleTree into binary form and returns it.
func (t *BinaryMerkleTree) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainMerkleTree)(t))
}

// UnmarshalBinary decodes binary form of BinaryMerkleTree into object.
func (t *BinaryMerkleTree) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainMerkleTree)(t))
}

// MarshalBinary encodes StateDelta into binary form and returns it.
func (d *StateDelta) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainStateDelta)(d))
}

// UnmarshalBinary decodes binary form of StateDelta into object.
func (d *StateDelta) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainStateDelta)(d))
}

// MarshalBinary encodes ParentChainBlockInfo into binary form and returns it.
func (p *ParentChainBlockInfo) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*plainParentChainBlockInfo)(p))
}

// UnmarshalBinary decodes binary form of ParentChainBlockInfo into object.
func (p *ParentChainBlockInfo) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*plainParentChainBlockInfo)(p))
}
