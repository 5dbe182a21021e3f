package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rollkit/blockexec/types"
)

var forceRollback bool

// NewRollbackCmd returns the command reverting the recorded state changes of
// a block. It repairs world state left behind by a block that was executed
// but never committed.
func NewRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback HEIGHT",
		Short: "Revert the world state changes recorded for the block at HEIGHT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height: %w", err)
			}

			st, err := openStore(conf)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			ctx := cmd.Context()
			chainID := conf.ChainHash()
			tip, err := st.Height(ctx, chainID)
			if err != nil {
				return err
			}
			if height <= tip && !forceRollback {
				return fmt.Errorf("block %d is committed (tip %d); use --force to revert its state anyway", height, tip)
			}

			header := &types.Header{ChainID: chainID, Index: height}
			disambiguationHash := header.DisambiguationHash()
			txIDs, err := st.ListDeltas(ctx, chainID, disambiguationHash)
			if err != nil {
				return err
			}
			if len(txIDs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no state changes recorded for block %d\n", height)
				return nil
			}
			if err := st.RollbackStateForTransactions(ctx, chainID, txIDs, disambiguationHash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %d transactions of block %d\n", len(txIDs), height)
			return nil
		},
	}
	cmd.Flags().BoolVar(&forceRollback, "force", false, "revert the state of a committed block")
	return cmd
}
