package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCmd returns the command showing the chain tip.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show height and last block hash of the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(conf)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			ctx := cmd.Context()
			chainID := conf.ChainHash()
			height, err := st.Height(ctx, chainID)
			if err != nil {
				return err
			}
			last, err := st.LastBlockHash(ctx, chainID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 2, ' ', 0)
			fmt.Fprintf(w, "chain:\t%s\n", chainID)
			fmt.Fprintf(w, "height:\t%d\n", height)
			fmt.Fprintf(w, "last block:\t%s\n", last)
			if height > 0 {
				block, err := st.GetBlock(ctx, chainID, height)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "transactions:\t%d\n", block.Body.TransactionsCount())
			}
			return w.Flush()
		},
	}
}
