package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/altuslabsxyz/txconfirm/internal/output"
	"github.com/altuslabsxyz/txconfirm/internal/paths"
	"github.com/pelletier/go-toml/v2"
)

// ConfigLoader is responsible for loading and merging configuration.
type ConfigLoader struct {
	homeDir    string
	configPath string // Explicit --config path
	logger     *output.Logger
}

// NewConfigLoader creates a new ConfigLoader.
func NewConfigLoader(homeDir, configPath string, logger *output.Logger) *ConfigLoader {
	return &ConfigLoader{
		homeDir:    homeDir,
		configPath: configPath,
		logger:     logger,
	}
}

// LoadFileConfig loads and merges every config file found, lowest priority first:
// ~/.txconfirm/config.toml, then ./config.toml, then the explicit --config path.
// It returns the merged FileConfig and the highest-priority file that was read.
func (l *ConfigLoader) LoadFileConfig() (*FileConfig, string, error) {
	files, err := l.candidates()
	if err != nil {
		return nil, "", err
	}

	var merged FileConfig
	var primary string
	for _, file := range files {
		cfg, err := l.readFile(file)
		if err != nil {
			return nil, "", err
		}
		mergeFileConfig(&merged, cfg)
		primary = file
	}

	if err := ValidateFileConfig(&merged); err != nil {
		return nil, "", fmt.Errorf("config validation failed: %w", err)
	}
	return &merged, primary, nil
}

// candidates lists existing config files in increasing priority, without duplicates.
func (l *ConfigLoader) candidates() ([]string, error) {
	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", l.configPath)
		}
	}

	var files []string
	seen := make(map[string]bool)
	for _, path := range []string{paths.ConfigPath(l.homeDir), paths.ConfigFile, l.configPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		files = append(files, path)
	}
	return files, nil
}

func (l *ConfigLoader) readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	l.warnUnknownKeys(data)
	if l.logger != nil {
		l.logger.Debug("Loaded config file: %s", path)
	}
	return &cfg, nil
}

// mergeFileConfig merges src into dst. Non-nil values in src overwrite dst.
func mergeFileConfig(dst, src *FileConfig) {
	mergePtr(&dst.Home, src.Home)
	mergePtr(&dst.NoColor, src.NoColor)
	mergePtr(&dst.Verbose, src.Verbose)
	mergePtr(&dst.JSON, src.JSON)
	mergePtr(&dst.Endpoint, src.Endpoint)
	mergePtr(&dst.RequestTimeout, src.RequestTimeout)
	mergePtr(&dst.SS58Prefix, src.SS58Prefix)
	mergePtr(&dst.AddressFormat, src.AddressFormat)
	mergePtr(&dst.Scheme, src.Scheme)
	mergePtr(&dst.MaxRetries, src.MaxRetries)
	mergePtr(&dst.VerboseTx, src.VerboseTx)
	mergePtr(&dst.LogLevel, src.LogLevel)
	mergePtr(&dst.LogFormat, src.LogFormat)
	mergePtr(&dst.LogFile, src.LogFile)
	mergePtr(&dst.MetricsAddr, src.MetricsAddr)
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// warnUnknownKeys checks for unknown keys in the config file and logs warnings.
func (l *ConfigLoader) warnUnknownKeys(data []byte) {
	if l.logger == nil {
		return
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return // Ignore errors here - main parsing will catch them
	}

	knownKeys := map[string]bool{
		"home":            true,
		"no_color":        true,
		"verbose":         true,
		"json":            true,
		"endpoint":        true,
		"request_timeout": true,
		"ss58_prefix":     true,
		"address_format":  true,
		"scheme":          true,
		"max_retries":     true,
		"verbose_tx":      true,
		"log_level":       true,
		"log_format":      true,
		"log_file":        true,
		"metrics_addr":    true,
	}

	for key := range raw {
		if !knownKeys[key] {
			l.logger.Warn("Unknown config key: %s", key)
		}
	}
}
