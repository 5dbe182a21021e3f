package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rollkit/blockexec/types"
)

// NewResultCmd returns the command showing a persisted transaction result.
func NewResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result TXID",
		Short: "Show the result of an executed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := types.HashFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction id: %w", err)
			}

			st, err := openStore(conf)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			res, err := st.GetTransactionResult(cmd.Context(), txID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 2, ' ', 0)
			fmt.Fprintf(w, "status:\t%s\n", res.Status)
			fmt.Fprintf(w, "block:\t%d %s\n", res.BlockNumber, res.BlockHash)
			fmt.Fprintf(w, "state hash:\t%s\n", res.StateHash)
			if len(res.RetVal) > 0 {
				fmt.Fprintf(w, "return:\t%q\n", res.RetVal)
			}
			fmt.Fprintf(w, "logs:\t%d\n", len(res.Logs))
			return w.Flush()
		},
	}
}
