package config

import (
	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
)

// NewShowCmd creates the config show subcommand.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		Long: `Display the current effective configuration with sources.

Shows all configuration values and where they came from:
  - default: Built-in default value
  - config.toml: Value from config file
  - environment: Value from environment variable
  - flag: Value from command-line flag`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}
}

func runShow(cmd *cobra.Command, _ []string) error {
	app := shared.FromContext(cmd.Context())
	cfg := app.Config

	if app.Out.IsJSON() {
		return app.Out.JSON(cfg.ToMap())
	}

	cfg.ToTable(app.Out.Writer())
	if cfg.ConfigFilePath != "" {
		app.Out.Println("\nConfig file: %s", cfg.ConfigFilePath)
	} else {
		app.Out.Println("\nNo config file loaded")
	}
	return nil
}
