package types

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// PackParams encodes call parameters as a msgpack array, in order.
func PackParams(values ...interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(values)); err != nil {
		return nil, err
	}
	for i, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to pack param %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// UnpackParams decodes a msgpack array produced by PackParams into out.
// The number of packed values must match len(out).
func UnpackParams(data []byte, out ...interface{}) error {
	if len(data) == 0 {
		return ErrEmptyParams
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("failed to decode params header: %w", err)
	}
	if n != len(out) {
		return fmt.Errorf("params count mismatch: packed %d, expected %d", n, len(out))
	}
	for i := range out {
		if err := dec.Decode(out[i]); err != nil {
			return fmt.Errorf("failed to unpack param %d: %w", i, err)
		}
	}
	return nil
}

// UnpackParentChainBlockInfo extracts the parent chain block info carried by a
// cross chain block info transaction.
func UnpackParentChainBlockInfo(tx *Transaction) (*ParentChainBlockInfo, error) {
	info := new(ParentChainBlockInfo)
	if err := UnpackParams(tx.Params, info); err != nil {
		return nil, err
	}
	return info, nil
}
