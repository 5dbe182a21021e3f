package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// GitSHA is set at build time
var GitSHA string

// Version is set at build time
var Version string

// VersionCmd shows version info
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	// version needs neither config nor logging
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if GitSHA == "" || Version == "" {
			return fmt.Errorf("version not set")
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 2, ' ', 0)
		fmt.Fprintf(w, "\nblockexec version:\t%v\n", Version)
		fmt.Fprintf(w, "blockexec git sha:\t%v\n", GitSHA)
		fmt.Fprintln(w, "")
		return w.Flush()
	},
}
