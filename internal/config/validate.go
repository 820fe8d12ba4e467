package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/altuslabsxyz/txconfirm/internal/logging"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
)

// Validate validates the EffectiveConfig values against allowed ranges and types.
func (c *EffectiveConfig) Validate() error {
	if err := validateEndpoint(c.Endpoint.Value); err != nil {
		return err
	}
	if c.RequestTimeout.Value <= 0 {
		return fmt.Errorf("invalid request_timeout: %s (must be positive)", c.RequestTimeout.Value)
	}
	if err := validateAddressFormat(c.AddressFormat.Value, c.SS58Prefix.Value); err != nil {
		return err
	}
	if err := validateScheme(c.Scheme.Value); err != nil {
		return err
	}
	if c.MaxRetries.Value < 0 {
		return fmt.Errorf("invalid max_retries: %d (must be >= 0)", c.MaxRetries.Value)
	}
	if _, err := logging.ParseLevel(c.LogLevel.Value); err != nil {
		return err
	}
	if err := validateLogFormat(c.LogFormat.Value); err != nil {
		return err
	}
	return nil
}

// ValidateFileConfig validates the FileConfig values before merging.
// This is called when loading the config file to provide early error messages.
func ValidateFileConfig(cfg *FileConfig) error {
	if cfg == nil {
		return nil
	}

	if cfg.Endpoint != nil {
		if err := validateEndpoint(*cfg.Endpoint); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}
	if cfg.RequestTimeout != nil {
		d, err := time.ParseDuration(*cfg.RequestTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid request_timeout in config file: %q (must be a positive duration)", *cfg.RequestTimeout)
		}
	}
	if cfg.AddressFormat != nil || cfg.SS58Prefix != nil {
		kind, prefix := substrate.FormatSS58, DefaultSS58Prefix
		if cfg.AddressFormat != nil {
			kind = *cfg.AddressFormat
		}
		if cfg.SS58Prefix != nil {
			prefix = *cfg.SS58Prefix
		}
		if err := validateAddressFormat(kind, prefix); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}
	if cfg.Scheme != nil {
		if err := validateScheme(*cfg.Scheme); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries in config file: %d (must be >= 0)", *cfg.MaxRetries)
	}
	if cfg.LogLevel != nil {
		if _, err := logging.ParseLevel(*cfg.LogLevel); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}
	if cfg.LogFormat != nil {
		if err := validateLogFormat(*cfg.LogFormat); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		return fmt.Errorf("invalid endpoint: %q (must start with ws:// or wss://)", endpoint)
	}
	return nil
}

func validateAddressFormat(kind string, prefix int) error {
	if prefix < 0 || prefix > 16383 {
		return fmt.Errorf("invalid ss58_prefix: %d (must be 0-16383)", prefix)
	}
	if _, err := substrate.NewAddressFormat(kind, uint16(prefix)); err != nil {
		return fmt.Errorf("invalid address_format: %w", err)
	}
	return nil
}

func validateScheme(scheme string) error {
	switch network.SignatureScheme(scheme) {
	case network.SchemeSr25519, network.SchemeEd25519, network.SchemeEcdsa, network.SchemeEthereum:
		return nil
	}
	return fmt.Errorf("invalid scheme: %q (must be sr25519, ed25519, ecdsa or ethereum)", scheme)
}

func validateLogFormat(format string) error {
	if format != logging.FormatText && format != logging.FormatJSON {
		return fmt.Errorf("invalid log_format: %q (must be %s or %s)", format, logging.FormatText, logging.FormatJSON)
	}
	return nil
}
