// Package commands provides the CLI command implementations for txconfirm.
// This file defines the root command and registers all subcommands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/altuslabsxyz/txconfirm/cmd/txconfirm/commands/config"
	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/commands/core"
	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
	"github.com/altuslabsxyz/txconfirm/internal/config"
	"github.com/altuslabsxyz/txconfirm/internal/logging"
	"github.com/altuslabsxyz/txconfirm/internal/output"
	"github.com/altuslabsxyz/txconfirm/internal/paths"
	"github.com/altuslabsxyz/txconfirm/internal/version"
)

// Command group IDs for organized help output.
const (
	GroupMain     = "main"
	GroupInspect  = "inspect"
	GroupSettings = "settings"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(output.DefaultLogger)
}

func newRootCmd(out *output.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "txconfirm",
		Short: "Submit transactions to a shuffling Substrate chain and confirm their events",
		Long: `txconfirm signs and submits extrinsics to a Substrate-based chain whose block
authors shuffle signed extrinsics before executing them in the next block.

After a transaction is finalized, txconfirm waits for the block that executed
it, rebuilds the shuffled execution order from the seed in that block's header,
and reports the events the transaction emitted.

Examples:
  # Transfer 1 unit from Alice to Bob on a local dev node
  txconfirm send --suri //Alice --pallet Balances --call transfer_keep_alive \
    5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty 1000000000000

  # Show the execution order of block 120
  txconfirm order 120

  # Print the next sequence number of an account
  txconfirm nonce 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupApp(cmd, configPath, out)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if app := shared.FromContext(cmd.Context()); app != nil {
				return app.Close()
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringP(config.FlagHome, "H", paths.DefaultHomeDir(), "Base directory for txconfirm data")
	f.StringVar(&configPath, "config", "", "Path to config.toml file")
	f.StringP(config.FlagEndpoint, "e", config.DefaultEndpoint, "Node websocket endpoint")
	f.Duration(config.FlagRequestTimeout, config.DefaultRequestTimeout, "Timeout for connecting and single node queries")
	f.Int(config.FlagSS58Prefix, config.DefaultSS58Prefix, "SS58 address prefix")
	f.String(config.FlagAddressFormat, "ss58", "Account rendering: ss58 or ethereum")
	f.Int(config.FlagMaxRetries, config.DefaultMaxRetries, "Non-advancing heads tolerated after inclusion")
	f.Bool(config.FlagVerboseTx, false, "Render the decoded call in status logs")
	f.String(config.FlagLogLevel, "info", "Log level: trace, debug, info, warn, error")
	f.String(config.FlagLogFormat, logging.FormatText, "Log format: text or json")
	f.String(config.FlagLogFile, "", "Write logs to a rotating file instead of stderr")
	f.String(config.FlagMetricsAddr, "", "Expose Prometheus metrics on this address")
	f.Bool(config.FlagJSON, false, "Output in JSON format")
	f.Bool(config.FlagNoColor, false, "Disable colored output")
	f.BoolP(config.FlagVerbose, "v", false, "Enable verbose output")

	cmd.AddGroup(&cobra.Group{ID: GroupMain, Title: "Main Commands:"})
	cmd.AddGroup(&cobra.Group{ID: GroupInspect, Title: "Inspection Commands:"})
	cmd.AddGroup(&cobra.Group{ID: GroupSettings, Title: "Settings Commands:"})

	registerCommands(cmd, out)
	return cmd
}

// setupApp resolves configuration and builds the per-invocation App.
// Priority: default < config.toml < environment < flag.
func setupApp(cmd *cobra.Command, configPath string, out *output.Logger) error {
	home, _ := cmd.Flags().GetString(config.FlagHome)
	if env := os.Getenv(config.EnvHome); env != "" && !cmd.Flags().Changed(config.FlagHome) {
		home = env
	}

	loader := config.NewConfigLoader(home, configPath, out)
	fileCfg, configFilePath, err := loader.LoadFileConfig()
	if err != nil {
		return err
	}

	cfg := config.Resolve(cmd, config.NewEffectiveConfig(paths.DefaultHomeDir()), fileCfg, os.Getenv)
	cfg.ConfigFilePath = configFilePath
	if err := cfg.Validate(); err != nil {
		return err
	}

	out.SetNoColor(cfg.NoColor.Value)
	out.SetVerbose(cfg.Verbose.Value)
	out.SetJSONMode(cfg.JSON.Value)
	if configFilePath != "" {
		out.Debug("Using config file: %s", configFilePath)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel.Value,
		Format:  cfg.LogFormat.Value,
		File:    cfg.LogFile.Value,
		NoColor: cfg.NoColor.Value,
	})
	if err != nil {
		return err
	}

	app := shared.NewApp(cfg, out, logger, closer)
	cmd.SetContext(shared.WithApp(cmd.Context(), app))
	return nil
}

func registerCommands(rootCmd *cobra.Command, out *output.Logger) {
	sendCmd := core.NewSendCmd()
	sendCmd.GroupID = GroupMain

	orderCmd := core.NewOrderCmd()
	orderCmd.GroupID = GroupInspect
	nonceCmd := core.NewNonceCmd()
	nonceCmd.GroupID = GroupInspect

	configCmd := configcmd.NewConfigCmd()
	configCmd.GroupID = GroupSettings
	versionCmd := version.NewCmd("txconfirm", func() bool {
		return out.IsJSON()
	})
	versionCmd.GroupID = GroupSettings

	rootCmd.AddCommand(sendCmd, orderCmd, nonceCmd, configCmd, versionCmd)
}
