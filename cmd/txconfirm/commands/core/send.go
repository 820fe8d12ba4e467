package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/altuslabsxyz/txconfirm/cmd/txconfirm/shared"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
	"github.com/altuslabsxyz/txconfirm/pkg/txconfirm"
)

// EnvSURI supplies the secret URI when --suri is not given.
const EnvSURI = "TXCONFIRM_SURI"

type sendOptions struct {
	suri   string
	scheme string
	pallet string
	call   string
	nonce  uint64
	tip    uint64
}

// sendResult is the JSON form of a confirmed transaction.
type sendResult struct {
	Pallet  string                 `json:"pallet"`
	Call    string                 `json:"call"`
	Signer  string                 `json:"signer"`
	Status  []network.TxStatus     `json:"status"`
	Events  []network.DecodedEvent `json:"events"`
	Success bool                   `json:"success"`
}

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send --pallet <pallet> --call <call> [args...]",
		Short: "Sign, submit and confirm a call",
		Long: `Sign a call built from the runtime metadata, submit it, and wait until the
events it emitted in its execution block are known.

Arguments are given in the order of the call's fields. Accounts may be given as
SS58 or 0x-hex, numbers in decimal or 0x-hex, and composite values as JSON.

The signer is taken from --suri, from the TXCONFIRM_SURI environment variable,
or read from the terminal without echo.

Examples:
  # Transfer from Alice using the dev keyring
  txconfirm send --suri //Alice --pallet Balances --call transfer_keep_alive \
    5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty 1000000000000

  # Submit with an explicit sequence number
  txconfirm send --suri //Bob --nonce 12 --pallet System --call remark 0x1234`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.suri, "suri", "", "Secret URI of the signer (mnemonic, hex seed or //Dev path)")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "", "Signature scheme: sr25519, ed25519, ecdsa or ethereum (default from config)")
	cmd.Flags().StringVar(&opts.pallet, "pallet", "", "Pallet name, e.g. Balances")
	cmd.Flags().StringVar(&opts.call, "call", "", "Call name, e.g. transfer_keep_alive")
	cmd.Flags().Uint64Var(&opts.nonce, "nonce", 0, "Use this sequence number instead of the cached one")
	cmd.Flags().Uint64Var(&opts.tip, "tip", 0, "Tip in the chain's smallest unit")
	_ = cmd.MarkFlagRequired("pallet")
	_ = cmd.MarkFlagRequired("call")

	return cmd
}

func runSend(cmd *cobra.Command, opts *sendOptions, args []string) error {
	ctx := cmd.Context()
	app := shared.FromContext(ctx)
	out := app.Out

	scheme := opts.scheme
	if scheme == "" {
		scheme = app.Config.Scheme.Value
	}
	suri, err := secretURI(opts.suri, cmd.InOrStdin(), out.ErrWriter())
	if err != nil {
		return err
	}
	signer, err := substrate.NewSigner(network.SignatureScheme(scheme), suri)
	if err != nil {
		return fmt.Errorf("invalid signer: %w", err)
	}

	client, err := app.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	node := client.Substrate()
	meta, err := node.Metadata(ctx)
	if err != nil {
		return err
	}
	call, err := meta.EncodeCall(opts.pallet, opts.call, args, node.AddressFormat())
	if err != nil {
		return fmt.Errorf("failed to encode %s.%s: %w", opts.pallet, opts.call, err)
	}

	account := node.AddressFormat().Encode(signer.AccountID())
	out.Info("Submitting %s.%s from %s", opts.pallet, opts.call, account)

	result := &sendResult{Pallet: opts.pallet, Call: opts.call, Signer: account}
	signOpts := []txconfirm.SignOption{
		txconfirm.WithTip(opts.tip),
		txconfirm.WithStatusCallback(func(s network.TxStatus) {
			result.Status = append(result.Status, s)
			out.Debug("status: %s %s", s.Type, s.Value())
		}),
	}
	if cmd.Flags().Changed("nonce") {
		signOpts = append(signOpts, txconfirm.WithNonce(opts.nonce))
	}

	events, err := client.SignAndConfirm(ctx, call, signer, signOpts...)
	if err != nil {
		return err
	}
	result.Events = events
	result.Success = !failed(events)

	if out.IsJSON() {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else {
		out.PrintEvents(events)
	}

	if !result.Success {
		return errors.New("extrinsic dispatch failed")
	}
	out.Success("%s.%s confirmed", opts.pallet, opts.call)
	return nil
}

func failed(events []network.DecodedEvent) bool {
	for _, ev := range events {
		if ev.IsFailure() {
			return true
		}
	}
	return false
}

// secretURI returns flagValue, then $TXCONFIRM_SURI, then a line read from in.
// A terminal is read without echo.
func secretURI(flagValue string, in io.Reader, prompt io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvSURI); env != "" {
		return env, nil
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Secret URI: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read secret URI: %w", err)
		}
		return nonEmpty(string(b))
	}

	b, err := io.ReadAll(io.LimitReader(in, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read secret URI: %w", err)
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return nonEmpty(line)
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("a signer is required: pass --suri or set " + EnvSURI)
	}
	return s, nil
}
