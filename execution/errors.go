package execution

import (
	"errors"
	"fmt"

	"github.com/rollkit/blockexec/types"
)

// These errors are faults: they abort execution with the Failed outcome.
var (
	// ErrTxNotExecutable is returned when the transaction hub refuses a transaction of the block.
	ErrTxNotExecutable = errors.New("transaction is not executable")
	// ErrReceiptsMismatch is returned when the hub returns a receipt count different from the transaction count.
	ErrReceiptsMismatch = errors.New("receipt count does not match transaction count")
	// ErrUnknownTrace is returned for an engine trace of a transaction not in the block.
	ErrUnknownTrace = errors.New("trace for unknown transaction")
	// ErrDuplicateTrace is returned when the engine reports a transaction twice.
	ErrDuplicateTrace = errors.New("duplicate trace")
	// ErrMissingTrace is returned when the engine does not report every transaction.
	ErrMissingTrace = errors.New("missing trace")
	// ErrSideChainIndexCorrupt is returned when the cross chain client refuses to advance a side chain.
	ErrSideChainIndexCorrupt = errors.New("inconsistent side chain info, side chain index is corrupt")
	// ErrParentChainIndexCorrupt is returned when the cross chain client refuses to commit a parent chain block.
	ErrParentChainIndexCorrupt = errors.New("inconsistent parent chain info, parent chain index is corrupt")
)

// InvalidBlockError rejects a block. It carries the outcome reported to the caller.
type InvalidBlockError struct {
	Result Result
	Msg    string
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block (%s): %s", e.Result, e.Msg)
}

func invalidBlock(res Result, format string, args ...interface{}) error {
	return &InvalidBlockError{Result: res, Msg: fmt.Sprintf(format, args...)}
}

// RollbackError is a fatal node condition: the state changes of a rejected
// block could not be reverted.
type RollbackError struct {
	ChainID    types.Hash
	BlockIndex uint64
	Err        error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("failed to roll back block %d of chain %s: %v", e.BlockIndex, e.ChainID, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// panicError wraps a value recovered from a panicking collaborator.
type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic during block execution: %v", e.value)
}
