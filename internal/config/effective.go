package config

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/altuslabsxyz/txconfirm/internal/logging"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
)

// Defaults.
const (
	DefaultEndpoint       = "ws://127.0.0.1:9944"
	DefaultSS58Prefix     = 42
	DefaultMaxRetries     = 10
	DefaultRequestTimeout = 30 * time.Second
	DefaultScheme         = "sr25519"
)

// EffectiveConfig represents the final merged configuration after applying priority chain.
type EffectiveConfig struct {
	// Global settings
	Home    StringValue
	NoColor BoolValue
	Verbose BoolValue
	JSON    BoolValue

	// Node connection
	Endpoint       StringValue
	RequestTimeout DurationValue

	// Chain settings
	SS58Prefix    IntValue
	AddressFormat StringValue
	Scheme        StringValue

	// Confirmation settings
	MaxRetries IntValue
	VerboseTx  BoolValue

	// Logging and metrics
	LogLevel    StringValue
	LogFormat   StringValue
	LogFile     StringValue
	MetricsAddr StringValue

	// Metadata
	ConfigFilePath string // Path to loaded config file (empty if none)
}

// NewEffectiveConfig creates a new EffectiveConfig with default values.
func NewEffectiveConfig(defaultHomeDir string) *EffectiveConfig {
	return &EffectiveConfig{
		Home:           NewStringValue(defaultHomeDir),
		NoColor:        NewBoolValue(false),
		Verbose:        NewBoolValue(false),
		JSON:           NewBoolValue(false),
		Endpoint:       NewStringValue(DefaultEndpoint),
		RequestTimeout: NewDurationValue(DefaultRequestTimeout),
		SS58Prefix:     NewIntValue(DefaultSS58Prefix),
		AddressFormat:  NewStringValue(substrate.FormatSS58),
		Scheme:         NewStringValue(DefaultScheme),
		MaxRetries:     NewIntValue(DefaultMaxRetries),
		VerboseTx:      NewBoolValue(false),
		LogLevel:       NewStringValue("info"),
		LogFormat:      NewStringValue(logging.FormatText),
		LogFile:        NewStringValue(""),
		MetricsAddr:    NewStringValue(""),
	}
}

// ToTable writes the configuration as a formatted table.
func (c *EffectiveConfig) ToTable(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	fmt.Fprintln(tw, "---\t-----\t------")
	fmt.Fprintf(tw, "home\t%s\t%s\n", c.Home.Value, c.Home.Source)
	fmt.Fprintf(tw, "endpoint\t%s\t%s\n", c.Endpoint.Value, c.Endpoint.Source)
	fmt.Fprintf(tw, "request_timeout\t%s\t%s\n", c.RequestTimeout.Value, c.RequestTimeout.Source)
	fmt.Fprintf(tw, "ss58_prefix\t%d\t%s\n", c.SS58Prefix.Value, c.SS58Prefix.Source)
	fmt.Fprintf(tw, "address_format\t%s\t%s\n", c.AddressFormat.Value, c.AddressFormat.Source)
	fmt.Fprintf(tw, "scheme\t%s\t%s\n", c.Scheme.Value, c.Scheme.Source)
	fmt.Fprintf(tw, "max_retries\t%d\t%s\n", c.MaxRetries.Value, c.MaxRetries.Source)
	fmt.Fprintf(tw, "verbose_tx\t%t\t%s\n", c.VerboseTx.Value, c.VerboseTx.Source)
	fmt.Fprintf(tw, "log_level\t%s\t%s\n", c.LogLevel.Value, c.LogLevel.Source)
	fmt.Fprintf(tw, "log_format\t%s\t%s\n", c.LogFormat.Value, c.LogFormat.Source)
	fmt.Fprintf(tw, "log_file\t%s\t%s\n", orNotSet(c.LogFile.Value), c.LogFile.Source)
	fmt.Fprintf(tw, "metrics_addr\t%s\t%s\n", orNotSet(c.MetricsAddr.Value), c.MetricsAddr.Source)
	fmt.Fprintf(tw, "no_color\t%t\t%s\n", c.NoColor.Value, c.NoColor.Source)
	fmt.Fprintf(tw, "verbose\t%t\t%s\n", c.Verbose.Value, c.Verbose.Source)
	fmt.Fprintf(tw, "json\t%t\t%s\n", c.JSON.Value, c.JSON.Source)
	tw.Flush()
}

// ToMap returns the configuration values keyed by config.toml key.
func (c *EffectiveConfig) ToMap() map[string]any {
	return map[string]any{
		"home":            c.Home.Value,
		"endpoint":        c.Endpoint.Value,
		"request_timeout": c.RequestTimeout.Value.String(),
		"ss58_prefix":     c.SS58Prefix.Value,
		"address_format":  c.AddressFormat.Value,
		"scheme":          c.Scheme.Value,
		"max_retries":     c.MaxRetries.Value,
		"verbose_tx":      c.VerboseTx.Value,
		"log_level":       c.LogLevel.Value,
		"log_format":      c.LogFormat.Value,
		"log_file":        c.LogFile.Value,
		"metrics_addr":    c.MetricsAddr.Value,
		"no_color":        c.NoColor.Value,
		"verbose":         c.Verbose.Value,
		"json":            c.JSON.Value,
		"config_file":     c.ConfigFilePath,
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
