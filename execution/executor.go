package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rollkit/blockexec/config"
	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// BlockExecutor executes blocks against chain state. It decides whether a
// block is committed or rolled back; its collaborators only carry out the
// decision.
type BlockExecutor struct {
	crossChain CrossChainClient
	txHub      TxHub
	chainStore ChainStore
	results    ResultStore

	collector  *transactionCollector
	executor   *transactionExecutor
	reconciler *crossChainReconciler
	rollbacker *rollbackCoordinator

	publisher Publisher
	metrics   *Metrics
	errCh     chan<- error
	logger    log.Logger

	crossChainTimeout time.Duration
	writeConcurrency  int
	requestInterval   time.Duration

	sessionMtx sync.RWMutex
	session    context.Context
	cancel     context.CancelFunc

	locksMtx   sync.Mutex
	chainLocks map[types.Hash]*sync.Mutex
}

// NewBlockExecutor creates new instance of BlockExecutor. Init must be called
// before blocks can be executed.
func NewBlockExecutor(
	conf config.Config,
	engine Engine,
	txHub TxHub,
	crossChain CrossChainClient,
	chainStore ChainStore,
	results ResultStore,
	trees MerkleTreeStore,
	logger log.Logger,
	opts ...Option,
) *BlockExecutor {
	e := &BlockExecutor{
		crossChain:        crossChain,
		txHub:             txHub,
		chainStore:        chainStore,
		results:           results,
		publisher:         nopPublisher{},
		metrics:           NopMetrics(),
		logger:            logger,
		crossChainTimeout: conf.CrossChainTimeout,
		writeConcurrency:  conf.ResultWriteConcurrency,
		requestInterval:   conf.CrossChainRequestInterval,
		chainLocks:        make(map[types.Hash]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.writeConcurrency < 1 {
		e.writeConcurrency = 1
	}

	e.collector = &transactionCollector{crossChain: crossChain, timeout: e.crossChainTimeout, logger: logger}
	e.executor = &transactionExecutor{engine: engine}
	e.reconciler = &crossChainReconciler{crossChain: crossChain, trees: trees, timeout: e.crossChainTimeout, logger: logger}
	e.rollbacker = &rollbackCoordinator{chainStore: chainStore, logger: logger}
	return e
}

// Init starts a new execution session. Blocks are rejected with
// ExecutionCancelled until Init is called, and again after Cancel.
func (e *BlockExecutor) Init() {
	e.sessionMtx.Lock()
	defer e.sessionMtx.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.session, e.cancel = context.WithCancel(context.Background())
}

// Cancel ends the current session. A running execution observes it through
// the context handed to the engine.
func (e *BlockExecutor) Cancel() {
	e.sessionMtx.Lock()
	defer e.sessionMtx.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// FinishInitialSync switches the cross chain client to its steady state
// request interval.
func (e *BlockExecutor) FinishInitialSync() {
	e.crossChain.UpdateRequestInterval(e.requestInterval)
}

// ExecuteBlock executes block and returns the outcome. On Success the block,
// its transaction results and merkle trees are persisted and a
// TransactionsExecuted event is published. On any failure after the
// preliminary checks, the state changes of mined transactions are reverted.
func (e *BlockExecutor) ExecuteBlock(ctx context.Context, block *types.Block) (res Result) {
	start := time.Now()
	defer func() {
		e.metrics.BlockExecutionTime.Observe(time.Since(start).Seconds())
		e.metrics.Outcomes.With("outcome", res.String()).Add(1)
	}()

	session := e.currentSession()
	if session == nil || session.Err() != nil {
		e.logger.Warn("execution cancelled")
		return ExecutionCancelled
	}
	if block == nil || block.Header == nil {
		e.logger.Warn("block is null")
		return BlockIsNull
	}

	unlock := e.lockChain(block.ChainID())
	defer unlock()

	execCtx, stop := mergeCancel(ctx, session)
	defer stop()

	logger := e.logger.With("chain", block.ChainID(), "height", block.Index(), "hash", block.Hash())
	if res = e.prepare(execCtx, block, logger); res.IsFailed() {
		return res
	}

	logger.Debug("executing block", "txs", block.Body.TransactionsCount())
	results, err := e.run(execCtx, block, logger)
	if err == nil {
		logger.Info("executed block", "txs", len(results))
		return Success
	}

	var invalid *InvalidBlockError
	switch {
	case execCtx.Err() != nil:
		logger.Warn("block execution cancelled", "error", err)
		res = ExecutionCancelled
	case errors.As(err, &invalid):
		logger.Warn("invalid block", "error", err)
		res = invalid.Result
	default:
		logger.Error("failed to execute block", "error", err)
		res = Failed
	}

	// rollback must run even when execution was cancelled
	e.rollback(context.WithoutCancel(ctx), block, results, logger)
	return res
}

// prepare performs the checks that precede execution. It has no side effects.
func (e *BlockExecutor) prepare(ctx context.Context, block *types.Block, logger log.Logger) Result {
	if block.Body.TransactionsCount() == 0 {
		logger.Warn("transaction list is empty")
		return NoTransaction
	}
	for _, info := range block.Body.IndexedInfo {
		ok, err := e.checkSideChainBlockInfo(ctx, info)
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("execution cancelled")
				return ExecutionCancelled
			}
			logger.Error("side chain info check failed", "info", info, "error", err)
			return InvalidSideChainInfo
		}
		if !ok {
			logger.Warn("invalid side chain info", "info", info)
			return InvalidSideChainInfo
		}
	}
	return PrepareSuccess
}

func (e *BlockExecutor) checkSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.crossChainTimeout)
	defer cancel()
	ok, err := e.crossChain.CheckSideChainBlockInfo(callCtx, info)
	if errors.Is(err, types.ErrClientShutDown) {
		return true, nil
	}
	return ok, err
}

// run executes every stage after prepare. It returns the results computed so
// far along with any error, including one recovered from a panic.
func (e *BlockExecutor) run(ctx context.Context, block *types.Block, logger log.Logger) (results []*types.TransactionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()

	txs, err := e.collector.collect(ctx, block)
	if err != nil {
		return nil, err
	}

	receipts, err := e.txHub.GetReceiptsFor(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipts: %w", err)
	}
	if len(receipts) != len(txs) {
		return nil, fmt.Errorf("%w: %d receipts, %d txs", ErrReceiptsMismatch, len(receipts), len(txs))
	}
	for _, receipt := range receipts {
		if !receipt.IsExecutable {
			return nil, fmt.Errorf("%w: %s", ErrTxNotExecutable, receipt.TransactionID)
		}
	}

	chainID, disambiguationHash := block.ChainID(), block.Header.DisambiguationHash()
	results, err = e.executor.execute(ctx, txs, chainID, disambiguationHash)
	if err != nil {
		return results, err
	}

	if res := VerifyWorldState(block.Header, results); res.IsFailed() {
		return results, invalidBlock(res, "world state root does not match header commitment %s", block.Header.MerkleTreeRootOfWorldState)
	}

	if err := e.reconciler.saveTrees(ctx, block); err != nil {
		return results, err
	}
	if err := insertResults(ctx, e.results, block, results, e.writeConcurrency); err != nil {
		return results, err
	}
	if err := e.reconciler.advanceIndex(ctx, block); err != nil {
		return results, err
	}
	if err := e.chainStore.AppendBlocks(ctx, chainID, []*types.Block{block}); err != nil {
		e.reconciler.logConsumed(block, logger)
		return results, fmt.Errorf("failed to append block: %w", err)
	}

	e.recordCommitted(ctx, chainID, results, logger)
	e.publisher.Publish(events.TransactionsExecuted{
		ChainID:      chainID,
		Transactions: txs,
		BlockIndex:   block.Index(),
	})
	return results, nil
}

func (e *BlockExecutor) recordCommitted(ctx context.Context, chainID types.Hash, results []*types.TransactionResult, logger log.Logger) {
	mined := len(types.MinedIDs(results))
	e.metrics.MinedTxs.Add(float64(mined))
	e.metrics.FailedTxs.Add(float64(len(results) - mined))

	height, err := e.chainStore.Height(ctx, chainID)
	if err != nil {
		logger.Error("failed to read chain height", "error", err)
		return
	}
	e.metrics.Height.Set(float64(height))
}

func (e *BlockExecutor) rollback(ctx context.Context, block *types.Block, results []*types.TransactionResult, logger log.Logger) {
	reverted, err := e.rollbacker.rollback(ctx, block, results)
	if err != nil {
		logger.Error("rollback failed", "error", err)
		e.fatal(err)
		return
	}
	if len(reverted) == 0 {
		return
	}
	e.metrics.Rollbacks.Add(1)
	e.publisher.Publish(events.BlockRolledBack{
		ChainID:    block.ChainID(),
		BlockIndex: block.Index(),
		Reverted:   reverted,
	})
}

// fatal reports an error the node cannot recover from.
func (e *BlockExecutor) fatal(err error) {
	if e.errCh == nil {
		panic(err)
	}
	select {
	case e.errCh <- err:
	default:
		panic(err)
	}
}

func (e *BlockExecutor) currentSession() context.Context {
	e.sessionMtx.RLock()
	defer e.sessionMtx.RUnlock()
	return e.session
}

func (e *BlockExecutor) lockChain(chainID types.Hash) func() {
	e.locksMtx.Lock()
	mtx, ok := e.chainLocks[chainID]
	if !ok {
		mtx = new(sync.Mutex)
		e.chainLocks[chainID] = mtx
	}
	e.locksMtx.Unlock()

	mtx.Lock()
	return mtx.Unlock
}

// mergeCancel returns a context that is done when either ctx or session is.
func mergeCancel(ctx, session context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(session, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
