package did

import (
	"fmt"
	"text/tabwriter"

	"github.com/nspcc-dev/vdr-go/cli/cmdargs"
	"github.com/nspcc-dev/vdr-go/cli/options"
	"github.com/urfave/cli"
)

// NewCommands returns 'did' command.
func NewCommands() []cli.Command {
	walletFlags := append([]cli.Flag{options.Wallet}, options.Config...)
	return []cli.Command{{
		Name:  "did",
		Usage: "manage DIDs stored in the wallet",
		Subcommands: []cli.Command{
			{
				Name:      "create",
				Usage:     "create a new DID and store its key in the wallet",
				UsageText: "vdr-go did create [--seed <seed>] [--did <did>] [--metadata <string>] [-w <path>]",
				Description: `Creates a new ed25519 key and stores it in the wallet. The key is
   derived from a 32-character seed if given (so the same seed always gives
   the same DID), otherwise it's random. The DID is the base58 of the first 16
   bytes of the verification key unless --did overrides it. DID and full
   verification key are printed on success.`,
				Action: createDID,
				Flags: append([]cli.Flag{
					cli.StringFlag{
						Name:  "seed",
						Usage: "32-byte seed (plain or hex-encoded) to derive the key from",
					},
					cli.StringFlag{
						Name:  "did",
						Usage: "DID to use instead of the derived one",
					},
					cli.StringFlag{
						Name:  "metadata",
						Usage: "arbitrary metadata to store with the DID",
					},
				}, walletFlags...),
			},
			{
				Name:      "list",
				Usage:     "list DIDs stored in the wallet",
				UsageText: "vdr-go did list [-w <path>]",
				Action:    listDIDs,
				Flags:     walletFlags,
			},
		},
	}}
}

func createDID(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	w, err := options.GetWallet(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer w.Close()

	id, verkey, err := w.CreateAndStoreDID(ctx.String("seed"), ctx.String("did"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if md := ctx.String("metadata"); len(md) != 0 {
		if err := w.SetMetadata(id, md); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	fmt.Fprintf(ctx.App.Writer, "DID: %s\n", id)
	fmt.Fprintf(ctx.App.Writer, "Verkey: %s\n", verkey)
	return nil
}

func listDIDs(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	w, err := options.GetWallet(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer w.Close()

	dids, err := w.ListDIDs()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DID\tVerkey\tMetadata")
	for _, d := range dids {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.DID, d.Verkey, d.Metadata)
	}
	return tw.Flush()
}
