package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// LogFormatPlain selects human readable log lines.
	LogFormatPlain = "plain"
	// LogFormatJSON selects JSON log lines.
	LogFormatJSON = "json"
	// DefaultDBName is the name of the badger directory under DBPath.
	DefaultDBName = "blockexec"
)

// DefaultRootDir is the default home directory.
var DefaultRootDir = defaultRootDir()

func defaultRootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blockexec"
	}
	return filepath.Join(home, ".blockexec")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RootDir:                    DefaultRootDir,
		DBPath:                     "data",
		ChainID:                    "blockexec",
		CrossChainTimeout:          5 * time.Second,
		ResultWriteConcurrency:     16,
		CrossChainRequestInterval:  4 * time.Second,
		InitialSyncRequestInterval: 500 * time.Millisecond,
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatPlain,
		},
		Instrumentation: DefaultInstrumentationConfig(),
	}
}
