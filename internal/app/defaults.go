package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the default locations used when no flags override them.
type Paths struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// DefaultPaths returns application default paths, checking environment variables first.
// Environment variables:
//   - CLIPSTACK_CONFIG_PATH: config file location (default: ~/.config/clipstack.toml)
//   - CLIPSTACK_HOME: base directory for clipstack data (default: ~/.local/share/clipstack)
func DefaultPaths() (Paths, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return Paths{}, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("CLIPSTACK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "clipstack.toml"), nil
}

// getBaseDir follows the XDG data directory layout unless CLIPSTACK_HOME is set.
func getBaseDir() (string, error) {
	if path := os.Getenv("CLIPSTACK_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "clipstack"), nil
}
