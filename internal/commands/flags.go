package commands

import (
	"path/filepath"

	"github.com/colonyops/scribe/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// ProfileAddr starts a pprof server on this address when set
	ProfileAddr string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return filepath.Join(config.ConfigDir(), "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	return config.DefaultDataDir()
}
