package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/altuslabsxyz/txconfirm/internal/paths"
)

// ConfigWriter handles writing configuration to homeDir/config.toml.
type ConfigWriter struct {
	homeDir string
}

// NewConfigWriter creates a new ConfigWriter for the given home directory.
func NewConfigWriter(homeDir string) *ConfigWriter {
	return &ConfigWriter{homeDir: homeDir}
}

// Path returns the full path to config.toml in homeDir.
func (w *ConfigWriter) Path() string {
	return paths.ConfigPath(w.homeDir)
}

// Exists returns true if config.toml already exists in homeDir.
func (w *ConfigWriter) Exists() bool {
	_, err := os.Stat(w.Path())
	return err == nil
}

// Write saves cfg to homeDir/config.toml, creating homeDir if needed.
// Unset keys are written as commented-out defaults.
func (w *ConfigWriter) Write(cfg *FileConfig) error {
	if err := os.MkdirAll(w.homeDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.homeDir, err)
	}
	if err := os.WriteFile(w.Path(), []byte(w.render(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

type tomlEntry struct {
	key      string
	value    any // nil when unset
	fallback string
}

func (w *ConfigWriter) render(cfg *FileConfig) string {
	var b strings.Builder

	b.WriteString("# txconfirm configuration file\n")
	b.WriteString("# Priority: default < config.toml < environment < CLI flag\n")
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# Location: %s\n", w.Path())
	b.WriteString("# Override with: --config /path/to/config.toml\n")

	writeSection(&b, "Global Settings", []tomlEntry{
		{"home", deref(cfg.Home), fmt.Sprintf("%q", "~/"+paths.DefaultHomeDirName)},
		{"verbose", deref(cfg.Verbose), "false"},
		{"json", deref(cfg.JSON), "false"},
		{"no_color", deref(cfg.NoColor), "false"},
	})
	writeSection(&b, "Node Connection", []tomlEntry{
		{"endpoint", deref(cfg.Endpoint), fmt.Sprintf("%q", DefaultEndpoint)},
		{"request_timeout", deref(cfg.RequestTimeout), fmt.Sprintf("%q", DefaultRequestTimeout.String())},
	})
	writeSection(&b, "Chain Settings", []tomlEntry{
		{"ss58_prefix", deref(cfg.SS58Prefix), fmt.Sprint(DefaultSS58Prefix)},
		{"address_format", deref(cfg.AddressFormat), `"ss58"`},
		{"scheme", deref(cfg.Scheme), fmt.Sprintf("%q", DefaultScheme)},
	})
	writeSection(&b, "Confirmation Settings", []tomlEntry{
		{"max_retries", deref(cfg.MaxRetries), fmt.Sprint(DefaultMaxRetries)},
		{"verbose_tx", deref(cfg.VerboseTx), "false"},
	})
	writeSection(&b, "Logging and Metrics", []tomlEntry{
		{"log_level", deref(cfg.LogLevel), `"info"`},
		{"log_format", deref(cfg.LogFormat), `"text"`},
		{"log_file", deref(cfg.LogFile), `""`},
		{"metrics_addr", deref(cfg.MetricsAddr), `":9615"`},
	})

	return b.String()
}

func writeSection(b *strings.Builder, title string, entries []tomlEntry) {
	b.WriteString("\n# =============================================================================\n")
	fmt.Fprintf(b, "# %s\n", title)
	b.WriteString("# =============================================================================\n\n")
	for _, e := range entries {
		switch v := e.value.(type) {
		case nil:
			fmt.Fprintf(b, "# %s = %s\n", e.key, e.fallback)
		case string:
			fmt.Fprintf(b, "%s = %q\n", e.key, v)
		default:
			fmt.Fprintf(b, "%s = %v\n", e.key, v)
		}
	}
}

// deref returns *p, or an untyped nil so writeSection can tell unset keys apart.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
