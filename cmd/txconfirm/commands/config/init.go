package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
	"github.com/altuslabsxyz/txconfirm/internal/config"
)

// NewInitCmd creates the config init subcommand.
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.toml to the home directory",
		Long: `Write a config.toml to the home directory.

Values given explicitly through flags or environment variables are written
as settings; everything else is written as a commented-out default.

Examples:
  # Write a commented template
  txconfirm config init

  # Pin the endpoint and prefix of a local chain
  txconfirm config init --endpoint ws://127.0.0.1:9944 --ss58-prefix 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := shared.FromContext(cmd.Context())
			w := config.NewConfigWriter(app.Config.Home.Value)
			if w.Exists() && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", w.Path())
			}
			if err := w.Write(explicitValues(app.Config)); err != nil {
				return err
			}
			app.Out.Success("Wrote %s", w.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.toml")
	return cmd
}

// explicitValues keeps the values that did not come from defaults. The home
// directory is implied by the file location and never written.
func explicitValues(cfg *config.EffectiveConfig) *config.FileConfig {
	out := &config.FileConfig{}
	str := func(v config.StringValue) *string {
		if !v.Source.IsExplicit() {
			return nil
		}
		s := v.Value
		return &s
	}
	num := func(v config.IntValue) *int {
		if !v.Source.IsExplicit() {
			return nil
		}
		n := v.Value
		return &n
	}
	flag := func(v config.BoolValue) *bool {
		if !v.Source.IsExplicit() {
			return nil
		}
		b := v.Value
		return &b
	}

	out.Endpoint = str(cfg.Endpoint)
	if cfg.RequestTimeout.Source.IsExplicit() {
		d := cfg.RequestTimeout.Value.String()
		out.RequestTimeout = &d
	}
	out.SS58Prefix = num(cfg.SS58Prefix)
	out.AddressFormat = str(cfg.AddressFormat)
	out.Scheme = str(cfg.Scheme)
	out.MaxRetries = num(cfg.MaxRetries)
	out.VerboseTx = flag(cfg.VerboseTx)
	out.LogLevel = str(cfg.LogLevel)
	out.LogFormat = str(cfg.LogFormat)
	out.LogFile = str(cfg.LogFile)
	out.MetricsAddr = str(cfg.MetricsAddr)
	out.NoColor = flag(cfg.NoColor)
	out.Verbose = flag(cfg.Verbose)
	out.JSON = flag(cfg.JSON)
	return out
}
