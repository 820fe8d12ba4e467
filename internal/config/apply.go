package config

import (
	"time"

	"github.com/spf13/cobra"
)

// Environment variables consulted by Resolve.
const (
	EnvHome        = "TXCONFIRM_HOME"
	EnvEndpoint    = "TXCONFIRM_ENDPOINT"
	EnvLogLevel    = "TXCONFIRM_LOG_LEVEL"
	EnvMetricsAddr = "TXCONFIRM_METRICS_ADDR"
	EnvVerboseTx   = "TX_VERBOSE"
	EnvNoColor     = "NO_COLOR"
)

// Flag names bound to config keys.
const (
	FlagHome           = "home"
	FlagEndpoint       = "endpoint"
	FlagRequestTimeout = "request-timeout"
	FlagSS58Prefix     = "ss58-prefix"
	FlagAddressFormat  = "address-format"
	FlagScheme         = "scheme"
	FlagMaxRetries     = "max-retries"
	FlagVerboseTx      = "verbose-tx"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagLogFile        = "log-file"
	FlagMetricsAddr    = "metrics-addr"
	FlagNoColor        = "no-color"
	FlagVerbose        = "verbose"
	FlagJSON           = "json"
)

// Resolve merges defaults, the config file, the environment and explicitly
// set flags of cmd. Priority: default < config.toml < environment < flag.
// cmd may be nil, in which case no flag overrides apply.
func Resolve(cmd *cobra.Command, defaults *EffectiveConfig, fileCfg *FileConfig, getenv func(string) string) *EffectiveConfig {
	cfg := *defaults
	if fileCfg == nil {
		fileCfg = &FileConfig{}
	}

	applyString(cmd, FlagHome, &cfg.Home, fileCfg.Home, getenv(EnvHome))
	applyString(cmd, FlagEndpoint, &cfg.Endpoint, fileCfg.Endpoint, getenv(EnvEndpoint))
	applyDuration(cmd, FlagRequestTimeout, &cfg.RequestTimeout, fileCfg.RequestTimeout)
	applyInt(cmd, FlagSS58Prefix, &cfg.SS58Prefix, fileCfg.SS58Prefix)
	applyString(cmd, FlagAddressFormat, &cfg.AddressFormat, fileCfg.AddressFormat, "")
	applyString(cmd, FlagScheme, &cfg.Scheme, fileCfg.Scheme, "")
	applyInt(cmd, FlagMaxRetries, &cfg.MaxRetries, fileCfg.MaxRetries)
	applyBool(cmd, FlagVerboseTx, &cfg.VerboseTx, fileCfg.VerboseTx, getenv(EnvVerboseTx) != "")
	applyString(cmd, FlagLogLevel, &cfg.LogLevel, fileCfg.LogLevel, getenv(EnvLogLevel))
	applyString(cmd, FlagLogFormat, &cfg.LogFormat, fileCfg.LogFormat, "")
	applyString(cmd, FlagLogFile, &cfg.LogFile, fileCfg.LogFile, "")
	applyString(cmd, FlagMetricsAddr, &cfg.MetricsAddr, fileCfg.MetricsAddr, getenv(EnvMetricsAddr))
	applyBool(cmd, FlagNoColor, &cfg.NoColor, fileCfg.NoColor, getenv(EnvNoColor) != "")
	applyBool(cmd, FlagVerbose, &cfg.Verbose, fileCfg.Verbose, false)
	applyBool(cmd, FlagJSON, &cfg.JSON, fileCfg.JSON, false)

	return &cfg
}

// flagChanged reports whether flagName was explicitly set on the command line.
func flagChanged(cmd *cobra.Command, flagName string) bool {
	return cmd != nil && cmd.Flags().Changed(flagName)
}

func applyString(cmd *cobra.Command, flagName string, v *StringValue, fileValue *string, envValue string) {
	if fileValue != nil {
		*v = StringValue{Value: *fileValue, Source: SourceConfigFile}
	}
	if envValue != "" {
		*v = StringValue{Value: envValue, Source: SourceEnvironment}
	}
	if flagChanged(cmd, flagName) {
		if s, err := cmd.Flags().GetString(flagName); err == nil {
			*v = StringValue{Value: s, Source: SourceFlag}
		}
	}
}

func applyInt(cmd *cobra.Command, flagName string, v *IntValue, fileValue *int) {
	if fileValue != nil {
		*v = IntValue{Value: *fileValue, Source: SourceConfigFile}
	}
	if flagChanged(cmd, flagName) {
		if n, err := cmd.Flags().GetInt(flagName); err == nil {
			*v = IntValue{Value: n, Source: SourceFlag}
		}
	}
}

// applyBool treats a set environment variable as "enable".
func applyBool(cmd *cobra.Command, flagName string, v *BoolValue, fileValue *bool, envSet bool) {
	if fileValue != nil {
		*v = BoolValue{Value: *fileValue, Source: SourceConfigFile}
	}
	if envSet {
		*v = BoolValue{Value: true, Source: SourceEnvironment}
	}
	if flagChanged(cmd, flagName) {
		if b, err := cmd.Flags().GetBool(flagName); err == nil {
			*v = BoolValue{Value: b, Source: SourceFlag}
		}
	}
}

// applyDuration expects fileValue to have been validated by ValidateFileConfig.
func applyDuration(cmd *cobra.Command, flagName string, v *DurationValue, fileValue *string) {
	if fileValue != nil {
		if d, err := time.ParseDuration(*fileValue); err == nil {
			*v = DurationValue{Value: d, Source: SourceConfigFile}
		}
	}
	if flagChanged(cmd, flagName) {
		if d, err := cmd.Flags().GetDuration(flagName); err == nil {
			*v = DurationValue{Value: d, Source: SourceFlag}
		}
	}
}
