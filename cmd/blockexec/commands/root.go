package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rollkit/blockexec/config"
	"github.com/rollkit/blockexec/log"
)

// EnvPrefix is the prefix of environment variables overriding flags.
const EnvPrefix = "BLOCKEXEC"

var conf = config.DefaultConfig()

func init() {
	config.AddFlags(RootCmd)
}

// RootCmd is the root command for blockexec
var RootCmd = &cobra.Command{
	Use:   "blockexec",
	Short: "Execute, inspect and repair blocks of a chain",
	Long: `
blockexec executes blocks against the world state of a chain and keeps the
chain, transaction results and cross chain index consistent with the outcome.
If the --home flag is not specified, data is stored under "~/.blockexec".
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return parseConfig(cmd, viper.New())
	},
}

// parseConfig reads flags and environment into conf and sets up logging.
func parseConfig(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := config.ReadConfigFile(v); err != nil {
		return err
	}
	if err := conf.GetViperConfig(v); err != nil {
		return err
	}
	if err := conf.ValidateBasic(); err != nil {
		return err
	}
	return log.Setup(conf.Log.Level, conf.Log.Format)
}
