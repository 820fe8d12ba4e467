// Package config provides the config command group.
package config

import "github.com/spf13/cobra"

// NewConfigCmd creates the config command with its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage txconfirm configuration",
		Long: `Manage txconfirm configuration.

Configuration is read from ~/.txconfirm/config.toml, ./config.toml and the
file given with --config, then overridden by environment variables and flags.`,
	}

	cmd.AddCommand(NewShowCmd(), NewInitCmd())
	return cmd
}
