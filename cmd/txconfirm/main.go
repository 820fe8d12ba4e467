package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/commands"
	"github.com/altuslabsxyz/txconfirm/internal/output"
	"github.com/altuslabsxyz/txconfirm/pkg/txconfirm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError prints err with a hint for the failures a user can act on.
func printError(err error) {
	logger := output.DefaultLogger
	if logger.IsJSON() {
		_ = logger.JSON(map[string]string{"error": err.Error()})
		return
	}

	fmt.Fprintln(logger.ErrWriter(), output.RedSeparator())
	logger.Error("%v", err)

	var timeout *txconfirm.TimeoutError
	switch {
	case errors.As(err, &timeout):
		fmt.Fprintf(logger.ErrWriter(), "\nHint: the chain did not advance past block %s; raise --max-retries or check block production.\n", timeout.InclusionBlock.Short())
	case txconfirm.IsReconstruction(err):
		fmt.Fprintln(logger.ErrWriter(), "\nHint: the execution order could not be rebuilt; rerun with --verbose-tx and check the node's header seed.")
	case txconfirm.IsTransport(err):
		fmt.Fprintln(logger.ErrWriter(), "\nHint: check that the node at --endpoint is reachable.")
	}
	fmt.Fprintln(logger.ErrWriter(), output.RedSeparator())
}
