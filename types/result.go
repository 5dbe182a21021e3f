package types

// Status is the terminal state of an executed transaction.
type Status int8

const (
	// StatusNotExisted is the zero value, used for unknown transactions.
	StatusNotExisted Status = iota
	// StatusMined means the transaction's state mutation was applied.
	StatusMined
	// StatusFailed means the transaction failed and applied no mutation.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusMined:
		return "mined"
	case StatusFailed:
		return "failed"
	default:
		return "not_existed"
	}
}

// LogEvent is a log emitted by a contract during execution.
type LogEvent struct {
	Address Address  `msgpack:"a"`
	Topics  [][]byte `msgpack:"t"`
	Data    []byte   `msgpack:"d"`
}

// Trace is what the execution engine reports for one transaction.
type Trace struct {
	TransactionID Hash
	// StdErr is empty when the transaction succeeded.
	StdErr string
	RetVal []byte
	Logs   []LogEvent
	// StateHash summarizes the state changes of the transaction. Failed
	// transactions still report the hash of their empty change set.
	StateHash Hash
}

// Succeeded reports whether the trace carries no error.
func (t *Trace) Succeeded() bool {
	return t.StdErr == ""
}

// Receipt is the mempool's view of a transaction.
type Receipt struct {
	TransactionID Hash
	IsExecutable  bool
}

// TransactionResult is the persisted outcome of a transaction.
type TransactionResult struct {
	TransactionID Hash       `msgpack:"i"`
	Status        Status     `msgpack:"s"`
	RetVal        []byte     `msgpack:"r"`
	Logs          []LogEvent `msgpack:"l"`
	StateHash     Hash       `msgpack:"h"`
	BlockNumber   uint64     `msgpack:"n"`
	BlockHash     Hash       `msgpack:"b"`
}

// NewTransactionResult maps an engine trace to a result.
func NewTransactionResult(trace *Trace) *TransactionResult {
	res := &TransactionResult{
		TransactionID: trace.TransactionID,
		StateHash:     trace.StateHash,
	}
	if trace.Succeeded() {
		res.Status = StatusMined
		res.Logs = append(res.Logs, trace.Logs...)
		res.RetVal = trace.RetVal
	} else {
		res.Status = StatusFailed
		res.RetVal = []byte(trace.StdErr)
	}
	return res
}

// StateHashes returns the state hashes of results in order.
func StateHashes(results []*TransactionResult) []Hash {
	hashes := make([]Hash, len(results))
	for i, r := range results {
		hashes[i] = r.StateHash
	}
	return hashes
}

// MinedIDs returns the ids of results with StatusMined, in order.
func MinedIDs(results []*TransactionResult) []Hash {
	var ids []Hash
	for _, r := range results {
		if r.Status == StatusMined {
			ids = append(ids, r.TransactionID)
		}
	}
	return ids
}
