package main

import (
	"fmt"
	"os"

	cmd "github.com/rollkit/blockexec/cmd/blockexec/commands"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.NewApplyCmd(),
		cmd.NewStatusCmd(),
		cmd.NewResultCmd(),
		cmd.NewRollbackCmd(),
		cmd.VersionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
