package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// Methods understood by the engine.
const (
	MethodSet    = "Set"
	MethodDelete = "Delete"
)

var (
	// ErrUnknownMethod is reported for transactions calling an unsupported method.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrEmptyKey is reported for transactions addressing the empty key.
	ErrEmptyKey = errors.New("empty key")
)

// StateStore applies recorded state changes.
type StateStore interface {
	ApplyTransactionDelta(ctx context.Context, chainID, disambiguationHash, txID types.Hash, changes []types.StateChange) (*types.StateDelta, error)
}

// Engine is a key-value execution engine. Set transactions carry the packed
// params (key, value), Delete transactions carry (key). Cross chain and
// consensus transactions succeed without touching state.
type Engine struct {
	store  StateStore
	logger log.Logger
}

// NewEngine creates new instance of Engine.
func NewEngine(store StateStore, logger log.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Execute applies txs in order. A transaction that cannot be decoded fails on
// its own; a store error aborts the run and the traces of the transactions
// applied so far are returned with it.
func (e *Engine) Execute(ctx context.Context, txs types.Txs, chainID types.Hash, disambiguationHash types.Hash) ([]*types.Trace, error) {
	traces := make([]*types.Trace, 0, len(txs))
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return traces, err
		}

		id := tx.Hash()
		changes, err := Plan(tx)
		if err != nil {
			e.logger.Debug("transaction failed", "tx", id, "error", err)
			traces = append(traces, &types.Trace{TransactionID: id, StdErr: err.Error(), StateHash: StateHash(nil)})
			continue
		}
		if len(changes) > 0 {
			if _, err := e.store.ApplyTransactionDelta(ctx, chainID, disambiguationHash, id, changes); err != nil {
				return traces, fmt.Errorf("failed to apply tx %s: %w", id, err)
			}
		}
		traces = append(traces, &types.Trace{TransactionID: id, StateHash: StateHash(changes)})
	}
	return traces, nil
}

// Plan returns the state changes tx requests.
func Plan(tx *types.Transaction) ([]types.StateChange, error) {
	if tx.Type != types.TxTypeNormal {
		return nil, nil
	}
	switch tx.MethodName {
	case MethodSet:
		var (
			key   string
			value []byte
		)
		if err := types.UnpackParams(tx.Params, &key, &value); err != nil {
			return nil, err
		}
		if key == "" {
			return nil, ErrEmptyKey
		}
		return []types.StateChange{{Key: key, Next: value}}, nil
	case MethodDelete:
		var key string
		if err := types.UnpackParams(tx.Params, &key); err != nil {
			return nil, err
		}
		if key == "" {
			return nil, ErrEmptyKey
		}
		return []types.StateChange{{Key: key, Deleted: true}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, tx.MethodName)
	}
}

// StateHash summarizes changes. It only depends on the requested changes, so
// the world state root of a block can be computed before it is executed.
func StateHash(changes []types.StateChange) types.Hash {
	type entry struct {
		Key     string
		Next    []byte
		Deleted bool
	}
	entries := make([]entry, len(changes))
	for i, c := range changes {
		entries[i] = entry{Key: c.Key, Next: c.Next, Deleted: c.Deleted}
	}
	// encoding slices of plain structs does not fail
	b, _ := msgpack.Marshal(entries)
	return types.HashFromBytes(b)
}

// ExpectedStateRoot returns the world state root the engine will produce for txs.
func ExpectedStateRoot(txs types.Txs) types.Hash {
	hashes := make([]types.Hash, len(txs))
	for i, tx := range txs {
		changes, err := Plan(tx)
		if err != nil {
			changes = nil
		}
		hashes[i] = StateHash(changes)
	}
	return types.MerkleRoot(hashes...)
}

// NewSetTx returns a transaction setting key to value.
func NewSetTx(from types.Address, nonce uint64, key string, value []byte) (*types.Transaction, error) {
	return newTx(from, nonce, MethodSet, key, value)
}

// NewDeleteTx returns a transaction removing key.
func NewDeleteTx(from types.Address, nonce uint64, key string) (*types.Transaction, error) {
	return newTx(from, nonce, MethodDelete, key)
}

func newTx(from types.Address, nonce uint64, method string, params ...interface{}) (*types.Transaction, error) {
	packed, err := types.PackParams(params...)
	if err != nil {
		return nil, err
	}
	return &types.Transaction{
		From:        from,
		IncrementID: nonce,
		MethodName:  method,
		Params:      packed,
		Type:        types.TxTypeNormal,
		Time:        time.Now().UnixNano(),
	}, nil
}
