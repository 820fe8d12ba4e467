// Package paths provides centralized path management for txconfirm.
package paths

import (
	"os"
	"path/filepath"
)

// Directory constants relative to home directory.
const (
	LogsDir = "logs"
)

// File name constants.
const (
	ConfigFile = "config.toml"
	LogFile    = "txconfirm.log"
)

const DefaultHomeDirName = ".txconfirm"

// DefaultHomeDir returns $HOME/.txconfirm or falls back to the current directory.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHomeDirName
	}
	return filepath.Join(home, DefaultHomeDirName)
}

// ConfigPath returns the path of config.toml in homeDir.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, ConfigFile)
}

// DefaultLogPath returns the default rotating log file location.
func DefaultLogPath(homeDir string) string {
	return filepath.Join(homeDir, LogsDir, LogFile)
}
