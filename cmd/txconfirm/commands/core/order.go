package core

import (
	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// orderResult is the JSON form of a reconstructed block.
type orderResult struct {
	Block  network.Hash        `json:"block"`
	Number uint64              `json:"number"`
	Seed   network.Hash        `json:"seed"`
	Count  uint32              `json:"count"`
	Order  []network.Extrinsic `json:"order"`
}

// NewOrderCmd creates the order command.
func NewOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order <block-hash|block-number>",
		Short: "Show the reconstructed execution order of a block",
		Long: `Fetch a block and rebuild the order in which its extrinsics were executed,
using the seed and inherent count published in its header.

Examples:
  txconfirm order 120
  txconfirm order 0x9a3f...e1 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runOrder,
	}
}

func runOrder(cmd *cobra.Command, args []string) error {
	app := shared.FromContext(cmd.Context())

	client, err := app.Dial(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := app.RequestContext(cmd.Context())
	defer cancel()

	hash, err := client.ResolveBlock(ctx, args[0])
	if err != nil {
		return err
	}
	block, res, err := client.ExecutionOrder(ctx, hash)
	if err != nil {
		return err
	}

	if app.Out.IsJSON() {
		meta := block.Header.Execution
		return app.Out.JSON(orderResult{
			Block:  block.Hash,
			Number: block.Header.Number,
			Seed:   network.Hash(meta.Seed),
			Count:  meta.Count,
			Order:  res.Order(),
		})
	}
	app.Out.PrintOrder(block, res)
	return nil
}
