package mempool

import (
	"context"
	"errors"
	"sync"

	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

var (
	// ErrTxNoSender is returned for transactions without a From address.
	ErrTxNoSender = errors.New("transaction has no sender")
	// ErrTxNoMethod is returned for transactions without a method name.
	ErrTxNoMethod = errors.New("transaction has no method name")
)

// TxPool holds transactions waiting to be included in a block and reports
// whether a block's transactions may be executed.
type TxPool struct {
	logger log.Logger

	mtx   sync.Mutex
	txs   map[types.Hash]*types.Transaction
	order []types.Hash
}

// NewTxPool returns an empty pool.
func NewTxPool(logger log.Logger) *TxPool {
	return &TxPool{
		logger: logger,
		txs:    make(map[types.Hash]*types.Transaction),
	}
}

// AddTransactions validates txs and adds the new ones to the pool.
func (p *TxPool) AddTransactions(txs ...*types.Transaction) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, tx := range txs {
		if err := ValidateTx(tx); err != nil {
			return err
		}
		p.add(tx.Hash(), tx)
	}
	return nil
}

// GetReceiptsFor reports for each tx whether it is executable. Transactions
// unknown to the pool, as found in blocks produced by other nodes, are
// validated and added.
func (p *TxPool) GetReceiptsFor(ctx context.Context, txs types.Txs) ([]*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	receipts := make([]*types.Receipt, len(txs))
	for i, tx := range txs {
		receipt := &types.Receipt{TransactionID: tx.Hash()}
		if err := ValidateTx(tx); err != nil {
			p.logger.Debug("transaction not executable", "tx", receipt.TransactionID, "error", err)
		} else {
			p.add(receipt.TransactionID, tx)
			receipt.IsExecutable = true
		}
		receipts[i] = receipt
	}
	return receipts, nil
}

// ReadyTxs returns the transactions to propose in the next block. Consensus
// transactions pass through filter and those it rejects leave the pool.
func (p *TxPool) ReadyTxs(filter *Filter) types.Txs {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var regular, consensus types.Txs
	for _, id := range p.order {
		tx := p.txs[id]
		if tx.Type == types.TxTypeConsensus {
			consensus = append(consensus, tx)
		} else {
			regular = append(regular, tx)
		}
	}
	if filter == nil {
		return append(consensus, regular...)
	}

	kept, removed := filter.Execute(consensus)
	for _, tx := range removed {
		p.remove(tx.Hash())
	}
	return append(kept, regular...)
}

// RemoveExecuted drops the transactions of an executed block.
func (p *TxPool) RemoveExecuted(e events.TransactionsExecuted) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, tx := range e.Transactions {
		p.remove(tx.Hash())
	}
	p.logger.Debug("removed executed transactions", "block", e.BlockIndex, "count", len(e.Transactions), "pool", len(p.txs))
}

// Size returns the number of pooled transactions.
func (p *TxPool) Size() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.txs)
}

// Has reports whether the pool holds the transaction with id.
func (p *TxPool) Has(id types.Hash) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	_, ok := p.txs[id]
	return ok
}

// ValidateTx performs the stateless checks a transaction must pass to be executable.
func ValidateTx(tx *types.Transaction) error {
	if tx == nil || len(tx.From) == 0 {
		return ErrTxNoSender
	}
	if tx.MethodName == "" {
		return ErrTxNoMethod
	}
	return nil
}

func (p *TxPool) add(id types.Hash, tx *types.Transaction) {
	if _, ok := p.txs[id]; ok {
		return
	}
	p.txs[id] = tx
	p.order = append(p.order, id)
}

func (p *TxPool) remove(id types.Hash) {
	if _, ok := p.txs[id]; !ok {
		return
	}
	delete(p.txs, id)
	for i, other := range p.order {
		if other == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}
