// Package events defines the notifications emitted by the block executor and
// delivers them to subscribers.
package events

import "github.com/rollkit/blockexec/types"

// Topic names, one per event type.
const (
	TopicTransactionsExecuted = "blockexec:transactions_executed"
	TopicBlockRolledBack      = "blockexec:block_rolled_back"
)

// Event is a typed notification. Topic routes it to subscribers.
type Event interface {
	Topic() string
}

// TransactionsExecuted is emitted once a block and its results are persisted.
// It is consumed by mempool cleanup.
type TransactionsExecuted struct {
	ChainID      types.Hash
	Transactions types.Txs
	BlockIndex   uint64
}

// Topic implements Event.
func (TransactionsExecuted) Topic() string { return TopicTransactionsExecuted }

// BlockRolledBack is emitted after the state changes of a rejected block were reverted.
type BlockRolledBack struct {
	ChainID    types.Hash
	BlockIndex uint64
	// Reverted lists the mined transactions whose changes were undone.
	Reverted []types.Hash
}

// Topic implements Event.
func (BlockRolledBack) Topic() string { return TopicBlockRolledBack }
