package execution

import "fmt"

// Result is the terminal classification of a block execution.
type Result int

const (
	// Success means the block was executed, verified and persisted.
	Success Result = iota
	// PrepareSuccess means the block passed the checks made before execution.
	PrepareSuccess
	// CollectTransactionsSuccess means the transactions of the block were collected.
	CollectTransactionsSuccess
	// UpdateWorldStateSuccess means the world state commitment matched.
	UpdateWorldStateSuccess

	// ExecutionCancelled means the executor was not initialized or was cancelled.
	ExecutionCancelled
	// BlockIsNull means the block or its header is missing.
	BlockIsNull
	// NoTransaction means the block has no transactions.
	NoTransaction
	// InvalidSideChainInfo means an indexed side chain block does not match local data.
	InvalidSideChainInfo
	// InvalidParentChainBlockInfo means the claimed parent chain block does not match local data.
	InvalidParentChainBlockInfo
	// TooManyTxsForParentChainBlock means the block has more than one cross chain block info transaction.
	TooManyTxsForParentChainBlock
	// IncorrectStateMerkleTree means the world state root differs from the header.
	IncorrectStateMerkleTree
	// Failed means an internal fault aborted execution.
	Failed
)

// IsSuccess reports whether r belongs to the success class.
func (r Result) IsSuccess() bool {
	return r >= Success && r <= UpdateWorldStateSuccess
}

// IsFailed reports whether r belongs to the failure class.
func (r Result) IsFailed() bool {
	return !r.IsSuccess()
}

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case PrepareSuccess:
		return "PrepareSuccess"
	case CollectTransactionsSuccess:
		return "CollectTransactionsSuccess"
	case UpdateWorldStateSuccess:
		return "UpdateWorldStateSuccess"
	case ExecutionCancelled:
		return "ExecutionCancelled"
	case BlockIsNull:
		return "BlockIsNull"
	case NoTransaction:
		return "NoTransaction"
	case InvalidSideChainInfo:
		return "InvalidSideChainInfo"
	case InvalidParentChainBlockInfo:
		return "InvalidParentChainBlockInfo"
	case TooManyTxsForParentChainBlock:
		return "TooManyTxsForParentChainBlock"
	case IncorrectStateMerkleTree:
		return "IncorrectStateMerkleTree"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}
