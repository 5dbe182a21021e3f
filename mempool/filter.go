package mempool

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// ConsensusBehavior is the consensus step the node is about to take. It
// decides which consensus transactions may enter the next block.
type ConsensusBehavior int

const (
	InitializeAElfDPoS ConsensusBehavior = iota
	PublishOutValueAndSignature
	UpdateAElfDPoS
	PublishInValue
)

func (b ConsensusBehavior) String() string {
	switch b {
	case InitializeAElfDPoS:
		return "InitializeAElfDPoS"
	case PublishOutValueAndSignature:
		return "PublishOutValueAndSignature"
	case UpdateAElfDPoS:
		return "UpdateAElfDPoS"
	case PublishInValue:
		return "PublishInValue"
	default:
		return fmt.Sprintf("ConsensusBehavior(%d)", int(b))
	}
}

// Stage inspects txs and returns the ones to drop. Stages run in order and
// each sees the list left by the previous one.
type Stage func(txs types.Txs, logger log.Logger) types.Txs

// Filter selects the consensus transactions allowed into a block for one
// consensus behavior.
type Filter struct {
	behavior ConsensusBehavior
	stages   []Stage
	logger   log.Logger
}

// NewFilter returns the filter for behavior, keeping only consensus
// transactions sent by nodeAddress where the behavior requires it.
func NewFilter(behavior ConsensusBehavior, nodeAddress types.Address, logger log.Logger) (*Filter, error) {
	var stages []Stage
	switch behavior {
	case InitializeAElfDPoS:
		stages = []Stage{GeneratedBy(nodeAddress), OneInitialTx}
	case PublishOutValueAndSignature:
		stages = []Stage{GeneratedBy(nodeAddress), OnePublishOutValueTx}
	case UpdateAElfDPoS:
		stages = []Stage{OneUpdateTx, GeneratedByCrossChain(nodeAddress)}
	default:
		return nil, fmt.Errorf("no transaction filter for consensus behavior %s", behavior)
	}
	return &Filter{
		behavior: behavior,
		stages:   stages,
		logger:   logger.With("behavior", behavior.String()),
	}, nil
}

// Behavior returns the consensus behavior the filter was built for.
func (f *Filter) Behavior() ConsensusBehavior {
	return f.behavior
}

// Execute runs the stages over txs. It returns the transactions that survive,
// in their original order, and the ones that should leave the pool.
func (f *Filter) Execute(txs types.Txs) (kept types.Txs, removed types.Txs) {
	kept = append(types.Txs(nil), txs...)
	for _, stage := range f.stages {
		toRemove := stage(kept, f.logger)
		if len(toRemove) == 0 {
			continue
		}
		drop := make(map[*types.Transaction]struct{}, len(toRemove))
		for _, tx := range toRemove {
			drop[tx] = struct{}{}
		}
		next := kept[:0:0]
		for _, tx := range kept {
			if _, ok := drop[tx]; ok {
				removed = append(removed, tx)
				continue
			}
			next = append(next, tx)
		}
		kept = next
	}
	f.logger.Debug("filtered transactions", "kept", len(kept), "removed", len(removed))
	return kept, removed
}

// GeneratedBy drops every transaction not sent by address.
func GeneratedBy(address types.Address) Stage {
	return func(txs types.Txs, _ log.Logger) types.Txs {
		var out types.Txs
		for _, tx := range txs {
			if !bytes.Equal(tx.From, address) {
				out = append(out, tx)
			}
		}
		return out
	}
}

// GeneratedByCrossChain drops cross chain block info transactions not sent by address.
func GeneratedByCrossChain(address types.Address) Stage {
	return func(txs types.Txs, _ log.Logger) types.Txs {
		var out types.Txs
		for _, tx := range txs {
			if tx.Type == types.TxTypeCrossChainBlockInfo && !bytes.Equal(tx.From, address) {
				out = append(out, tx)
			}
		}
		return out
	}
}

// OneInitialTx keeps only the latest InitializeAElfDPoS transaction and drops
// everything else.
func OneInitialTx(txs types.Txs, logger log.Logger) types.Txs {
	out := keepLatest(txs, InitializeAElfDPoS.String(), logger)
	for _, tx := range txs {
		if tx.MethodName != InitializeAElfDPoS.String() {
			out = append(out, tx)
		}
	}
	return out
}

// OnePublishOutValueTx keeps only the latest PublishOutValueAndSignature
// consensus transaction and drops the other consensus transactions.
func OnePublishOutValueTx(txs types.Txs, logger log.Logger) types.Txs {
	out := keepLatest(txs, PublishOutValueAndSignature.String(), logger)
	for _, tx := range txs {
		if tx.MethodName != PublishOutValueAndSignature.String() {
			out = append(out, tx)
		}
	}
	return onlyConsensus(out)
}

// OneUpdateTx keeps only the latest UpdateAElfDPoS consensus transaction
// along with PublishInValue ones and drops the other consensus transactions.
func OneUpdateTx(txs types.Txs, logger log.Logger) types.Txs {
	out := keepLatest(txs, UpdateAElfDPoS.String(), logger)
	for _, tx := range txs {
		if tx.MethodName != UpdateAElfDPoS.String() && tx.MethodName != PublishInValue.String() {
			out = append(out, tx)
		}
	}
	return onlyConsensus(out)
}

// keepLatest returns all but the newest transaction calling method.
func keepLatest(txs types.Txs, method string, logger log.Logger) types.Txs {
	var matching types.Txs
	for _, tx := range txs {
		if tx.MethodName == method {
			matching = append(matching, tx)
		}
	}
	if len(matching) == 0 {
		logger.Warn("no consensus transaction in pool", "method", method)
		return nil
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Time < matching[j].Time })
	return matching[:len(matching)-1]
}

func onlyConsensus(txs types.Txs) types.Txs {
	var out types.Txs
	for _, tx := range txs {
		if tx.Type == types.TxTypeConsensus {
			out = append(out, tx)
		}
	}
	return out
}
