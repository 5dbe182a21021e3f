package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rollkit/blockexec/types"
)

const (
	// FlagRootDir is the home directory of the node
	FlagRootDir = "home"
	// FlagDBPath is the path to the database, relative to the home directory
	FlagDBPath = "blockexec.db_path"
	// FlagChainID is the chain the executor works on
	FlagChainID = "blockexec.chain_id"
	// FlagCrossChainTimeout bounds every call to the cross chain client
	FlagCrossChainTimeout = "blockexec.cross_chain_timeout"
	// FlagResultWriteConcurrency bounds parallel transaction result writes
	FlagResultWriteConcurrency = "blockexec.result_write_concurrency"
	// FlagCrossChainRequestInterval is the steady state cross chain polling interval
	FlagCrossChainRequestInterval = "blockexec.cross_chain_request_interval"
	// FlagInitialSyncRequestInterval is the cross chain polling interval during initial sync
	FlagInitialSyncRequestInterval = "blockexec.initial_sync_request_interval"
	// FlagLogLevel is the log level
	FlagLogLevel = "log.level"
	// FlagLogFormat is the log format, plain or json
	FlagLogFormat = "log.format"
	// FlagPrometheus enables Prometheus metrics
	FlagPrometheus = "instrumentation.prometheus"
	// FlagPrometheusListenAddr is the address of the metrics endpoint
	FlagPrometheusListenAddr = "instrumentation.prometheus_listen_addr"
	// FlagMetricsNamespace is the namespace of all metrics
	FlagMetricsNamespace = "instrumentation.namespace"
)

// Config stores the block executor configuration.
type Config struct {
	RootDir string `mapstructure:"home"`
	DBPath  string `mapstructure:"db_path"`
	// ChainID is the hex encoded id of the chain, or any string that is hashed into one.
	ChainID string `mapstructure:"chain_id"`

	CrossChainTimeout          time.Duration `mapstructure:"cross_chain_timeout"`
	ResultWriteConcurrency     int           `mapstructure:"result_write_concurrency"`
	CrossChainRequestInterval  time.Duration `mapstructure:"cross_chain_request_interval"`
	InitialSyncRequestInterval time.Duration `mapstructure:"initial_sync_request_interval"`

	Log             LogConfig              `mapstructure:"log"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ChainHash returns the chain id as a hash. Hex encoded ids are decoded,
// other strings are hashed.
func (c *Config) ChainHash() types.Hash {
	if h, err := types.HashFromHex(c.ChainID); err == nil {
		return h
	}
	return types.HashFromString(c.ChainID)
}

// GetViperConfig reads configuration parameters from Viper instance.
func (c *Config) GetViperConfig(v *viper.Viper) error {
	if home := v.GetString(FlagRootDir); home != "" {
		c.RootDir = home
	}
	if v.IsSet(FlagDBPath) {
		c.DBPath = v.GetString(FlagDBPath)
	}
	if v.IsSet(FlagChainID) {
		c.ChainID = v.GetString(FlagChainID)
	}
	if v.IsSet(FlagCrossChainTimeout) {
		c.CrossChainTimeout = v.GetDuration(FlagCrossChainTimeout)
	}
	if v.IsSet(FlagResultWriteConcurrency) {
		c.ResultWriteConcurrency = v.GetInt(FlagResultWriteConcurrency)
	}
	if v.IsSet(FlagCrossChainRequestInterval) {
		c.CrossChainRequestInterval = v.GetDuration(FlagCrossChainRequestInterval)
	}
	if v.IsSet(FlagInitialSyncRequestInterval) {
		c.InitialSyncRequestInterval = v.GetDuration(FlagInitialSyncRequestInterval)
	}
	if v.IsSet(FlagLogLevel) {
		c.Log.Level = v.GetString(FlagLogLevel)
	}
	if v.IsSet(FlagLogFormat) {
		c.Log.Format = v.GetString(FlagLogFormat)
	}

	if c.Instrumentation == nil {
		c.Instrumentation = DefaultInstrumentationConfig()
	}
	if v.IsSet(FlagPrometheus) {
		c.Instrumentation.Prometheus = v.GetBool(FlagPrometheus)
	}
	if v.IsSet(FlagPrometheusListenAddr) {
		c.Instrumentation.PrometheusListenAddr = v.GetString(FlagPrometheusListenAddr)
	}
	if v.IsSet(FlagMetricsNamespace) {
		c.Instrumentation.Namespace = v.GetString(FlagMetricsNamespace)
	}
	return nil
}

// ConfigFileName is the name of the optional config file under <home>/config.
const ConfigFileName = "blockexec.toml"

// ReadConfigFile merges <home>/config/blockexec.toml into v. A missing file is
// not an error.
func ReadConfigFile(v *viper.Viper) error {
	home := v.GetString(FlagRootDir)
	if home == "" {
		home = DefaultRootDir
	}
	v.SetConfigFile(filepath.Join(home, "config", ConfigFileName))
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// ValidateBasic performs basic validation of the configuration.
func (c *Config) ValidateBasic() error {
	if c.ChainID == "" {
		return errors.New("chain id can't be empty")
	}
	if c.CrossChainTimeout <= 0 {
		return fmt.Errorf("cross chain timeout must be positive, got %s", c.CrossChainTimeout)
	}
	if c.ResultWriteConcurrency < 1 {
		return fmt.Errorf("result write concurrency must be at least 1, got %d", c.ResultWriteConcurrency)
	}
	if c.CrossChainRequestInterval <= 0 || c.InitialSyncRequestInterval <= 0 {
		return errors.New("cross chain request intervals must be positive")
	}
	switch c.Log.Format {
	case "", LogFormatPlain, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Instrumentation != nil {
		if err := c.Instrumentation.ValidateBasic(); err != nil {
			return fmt.Errorf("instrumentation: %w", err)
		}
	}
	return nil
}

// AddFlags adds block executor configuration options to cobra Command.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig()
	cmd.PersistentFlags().String(FlagRootDir, def.RootDir, "root directory for config and data")
	cmd.PersistentFlags().String(FlagDBPath, def.DBPath, "database path relative to root directory")
	cmd.PersistentFlags().String(FlagChainID, def.ChainID, "chain id (hex encoded hash, or a name that is hashed)")
	cmd.PersistentFlags().Duration(FlagCrossChainTimeout, def.CrossChainTimeout, "timeout of a single cross chain client call")
	cmd.PersistentFlags().Int(FlagResultWriteConcurrency, def.ResultWriteConcurrency, "number of transaction results written in parallel")
	cmd.PersistentFlags().Duration(FlagCrossChainRequestInterval, def.CrossChainRequestInterval, "cross chain request interval once synced")
	cmd.PersistentFlags().Duration(FlagInitialSyncRequestInterval, def.InitialSyncRequestInterval, "cross chain request interval during initial sync")
	cmd.PersistentFlags().String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, def.Log.Format, "log format (plain, json)")
	cmd.PersistentFlags().Bool(FlagPrometheus, def.Instrumentation.Prometheus, "serve Prometheus metrics")
	cmd.PersistentFlags().String(FlagPrometheusListenAddr, def.Instrumentation.PrometheusListenAddr, "Prometheus metrics listen address")
	cmd.PersistentFlags().String(FlagMetricsNamespace, def.Instrumentation.Namespace, "metrics namespace")
}
