package core

import (
	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
)

// NewNonceCmd creates the nonce command.
func NewNonceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <address>",
		Short: "Print the next sequence number the node expects for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := shared.FromContext(cmd.Context())

			client, err := app.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := app.RequestContext(cmd.Context())
			defer cancel()

			next, err := client.NextIndex(ctx, args[0])
			if err != nil {
				return err
			}
			if app.Out.IsJSON() {
				return app.Out.JSON(map[string]any{"address": args[0], "nonce": next})
			}
			app.Out.Println("%d", next)
			return nil
		},
	}
}
