package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rollkit/blockexec/crosschain"
	"github.com/rollkit/blockexec/events"
	"github.com/rollkit/blockexec/execution"
	"github.com/rollkit/blockexec/execution/kv"
	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/mempool"
	"github.com/rollkit/blockexec/types"
)

var sender string

// NewApplyCmd returns the command executing a block of key-value transactions.
func NewApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply set:KEY=VALUE|del:KEY...",
		Short: "Execute a block of key-value transactions on top of the chain tip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := senderAddress()
			if err != nil {
				return err
			}
			txs := make(types.Txs, len(args))
			for i, arg := range args {
				if txs[i], err = parseTxArg(arg, from, uint64(i)); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			res, err := applyBlock(ctx, txs, cmd)
			if err != nil {
				return err
			}
			if res.IsFailed() {
				return fmt.Errorf("block rejected: %s", res)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "hex encoded sender address (random if empty)")
	return cmd
}

func applyBlock(ctx context.Context, txs types.Txs, cmd *cobra.Command) (execution.Result, error) {
	logger := log.NewLogger("blockexec")

	st, err := openStore(conf)
	if err != nil {
		return execution.Failed, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	metrics, stopMetrics := startMetrics(conf, logger)
	defer stopMetrics()

	cache := crosschain.NewCache(conf.InitialSyncRequestInterval, logger)
	defer cache.Close() //nolint:errcheck

	pool := mempool.NewTxPool(logger)
	if err := pool.AddTransactions(txs...); err != nil {
		return execution.Failed, err
	}

	dispatcher := events.NewDispatcher(logger)
	defer dispatcher.Close() //nolint:errcheck
	if err := events.Subscribe(dispatcher, pool.RemoveExecuted); err != nil {
		return execution.Failed, err
	}

	errCh := make(chan error, 1)
	executor := execution.NewBlockExecutor(
		conf,
		kv.NewEngine(st, logger),
		pool,
		cache,
		st, st, st,
		logger,
		execution.WithPublisher(dispatcher),
		execution.WithMetrics(metrics),
		execution.WithErrorChannel(errCh),
	)
	executor.Init()
	executor.FinishInitialSync()
	stop := context.AfterFunc(ctx, executor.Cancel)
	defer stop()

	chainID := conf.ChainHash()
	height, err := st.Height(ctx, chainID)
	if err != nil {
		return execution.Failed, err
	}
	prev, err := st.LastBlockHash(ctx, chainID)
	if err != nil {
		return execution.Failed, err
	}
	block := types.NewBlock(chainID, height+1, prev, txs, nil)
	block.Header.MerkleTreeRootOfWorldState = kv.ExpectedStateRoot(txs)

	res := executor.ExecuteBlock(ctx, block)
	dispatcher.WaitAsync()
	select {
	case err := <-errCh:
		return res, err
	default:
	}

	fmt.Fprintf(cmd.OutOrStdout(), "block %d %s: %s\n", block.Index(), block.Hash(), res)
	return res, nil
}

func senderAddress() (types.Address, error) {
	if sender == "" {
		return types.Address(types.GetRandomBytes(20)), nil
	}
	return types.AddressFromHex(sender)
}

// parseTxArg parses set:KEY=VALUE and del:KEY.
func parseTxArg(arg string, from types.Address, nonce uint64) (*types.Transaction, error) {
	op, rest, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("malformed transaction %q; expected set:KEY=VALUE or del:KEY", arg)
	}
	switch op {
	case "set":
		key, value, ok := strings.Cut(rest, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed set %q; expected set:KEY=VALUE", arg)
		}
		return kv.NewSetTx(from, nonce, key, []byte(value))
	case "del":
		if rest == "" {
			return nil, fmt.Errorf("malformed delete %q; expected del:KEY", arg)
		}
		return kv.NewDeleteTx(from, nonce, rest)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}
