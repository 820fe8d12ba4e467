package config

// FileConfig represents the raw config.toml file contents.
// All fields are pointers to distinguish "not set" from "set to zero/false".
type FileConfig struct {
	// Global settings
	Home    *string `toml:"home"`
	NoColor *bool   `toml:"no_color"`
	Verbose *bool   `toml:"verbose"`
	JSON    *bool   `toml:"json"`

	// Node connection
	Endpoint       *string `toml:"endpoint"`
	RequestTimeout *string `toml:"request_timeout"` // Go duration, e.g. "30s"

	// Chain settings
	SS58Prefix    *int    `toml:"ss58_prefix"`
	AddressFormat *string `toml:"address_format"` // "ss58" or "ethereum"
	Scheme        *string `toml:"scheme"`         // Default signature scheme for --suri

	// Confirmation settings
	MaxRetries *int  `toml:"max_retries"`
	VerboseTx  *bool `toml:"verbose_tx"`

	// Logging and metrics
	LogLevel    *string `toml:"log_level"`
	LogFormat   *string `toml:"log_format"`
	LogFile     *string `toml:"log_file"`
	MetricsAddr *string `toml:"metrics_addr"`
}

// IsEmpty returns true if no configuration values are set.
func (f *FileConfig) IsEmpty() bool {
	return f.Home == nil &&
		f.NoColor == nil &&
		f.Verbose == nil &&
		f.JSON == nil &&
		f.Endpoint == nil &&
		f.RequestTimeout == nil &&
		f.SS58Prefix == nil &&
		f.AddressFormat == nil &&
		f.Scheme == nil &&
		f.MaxRetries == nil &&
		f.VerboseTx == nil &&
		f.LogLevel == nil &&
		f.LogFormat == nil &&
		f.LogFile == nil &&
		f.MetricsAddr == nil
}
