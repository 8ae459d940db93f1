package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/vdr-go/cli/cmdargs"
	"github.com/nspcc-dev/vdr-go/cli/options"
	"github.com/nspcc-dev/vdr-go/pkg/config"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	submitterFlag = cli.StringFlag{
		Name:  "submitter",
		Usage: "submitter DID, its key is taken from the wallet for writes",
	}
	destFlag = cli.StringFlag{
		Name:  "dest",
		Usage: "target DID",
	}
	dryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "print the request instead of submitting it",
	}
	unsignedFlag = cli.BoolFlag{
		Name:  "unsigned",
		Usage: "don't sign the write request (the pool is expected to reject it)",
	}
)

// NewCommands returns 'ledger' command.
func NewCommands() []cli.Command {
	common := append([]cli.Flag{options.Debug, dryRunFlag}, options.Config...)
	common = append(common, options.Pool...)
	writeFlags := append([]cli.Flag{submitterFlag, destFlag, unsignedFlag, options.Wallet}, common...)
	readFlags := append([]cli.Flag{submitterFlag, destFlag}, common...)

	return []cli.Command{{
		Name:  "ledger",
		Usage: "read and write ledger records",
		Subcommands: []cli.Command{
			{
				Name:      "attrib",
				Usage:     "set an attribute of the target DID",
				UsageText: "vdr-go ledger attrib --submitter <did> --dest <did> --raw <json> | --hash <hex> | --enc <data> [--dry-run] [--unsigned]",
				Description: `Builds an ATTRIB request, signs it with the submitter key and sends it
   to the pool. Exactly one of --raw, --hash or --enc must be given, raw
   attribute is a JSON object with a single key like '{"endpoint":{"ha":"127.0.0.1:5555"}}'.
   The submitter must be the owner of the target DID or the DID that created it.`,
				Action: attrib,
				Flags:  append(writeFlags, cmdargs.AttribFlags...),
			},
			{
				Name:      "get-attrib",
				Usage:     "read an attribute of the target DID",
				UsageText: "vdr-go ledger get-attrib --submitter <did> --dest <did> --raw <name> | --hash <hex> | --enc <data> [--dry-run]",
				Action:    getAttrib,
				Flags:     append(readFlags, cmdargs.AttribFlags...),
			},
			{
				Name:      "nym",
				Usage:     "create or update an identity record",
				UsageText: "vdr-go ledger nym --submitter <did> --dest <did> [--verkey <key>] [--alias <alias>] [--role <role>] [--dry-run] [--unsigned]",
				Description: `Builds a NYM request, signs it with the submitter key and sends it to
   the pool. Role is one of TRUSTEE, STEWARD, ENDORSER (TRUST_ANCHOR),
   NETWORK_MONITOR, a numeric role code or empty to leave it as is.`,
				Action: nym,
				Flags: append([]cli.Flag{
					cli.StringFlag{
						Name:  "verkey",
						Usage: "verification key of the target DID (full or abbreviated)",
					},
					cli.StringFlag{
						Name:  "alias",
						Usage: "alias of the target DID",
					},
					cli.StringFlag{
						Name:  "role",
						Usage: "role of the target DID",
					},
				}, writeFlags...),
			},
			{
				Name:      "get-nym",
				Usage:     "read an identity record",
				UsageText: "vdr-go ledger get-nym --submitter <did> --dest <did> [--dry-run]",
				Action:    getNym,
				Flags:     readFlags,
			},
		},
	}}
}

func attrib(ctx *cli.Context) error {
	return write(ctx, func(b *request.Builder, submitter, dest string) (*request.Request, error) {
		data, ec := cmdargs.GetAttribDataFromContext(ctx, true)
		if ec != nil {
			return nil, ec
		}
		return b.Attrib(submitter, dest, data)
	})
}

func nym(ctx *cli.Context) error {
	return write(ctx, func(b *request.Builder, submitter, dest string) (*request.Request, error) {
		return b.Nym(submitter, dest, ctx.String("verkey"), ctx.String("alias"), ctx.String("role"))
	})
}

func getAttrib(ctx *cli.Context) error {
	return read(ctx, func(b *request.Builder, submitter, dest string) (*request.Request, error) {
		sel, ec := cmdargs.GetAttribDataFromContext(ctx, false)
		if ec != nil {
			return nil, ec
		}
		return b.GetAttrib(submitter, dest, sel)
	})
}

func getNym(ctx *cli.Context) error {
	return read(ctx, func(b *request.Builder, submitter, dest string) (*request.Request, error) {
		return b.GetNym(submitter, dest)
	})
}

func write(ctx *cli.Context, build func(*request.Builder, string, string) (*request.Request, error)) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	submitter, ec := cmdargs.GetDIDFromContext(ctx, "submitter", false)
	if ec != nil {
		return ec
	}
	dest, ec := cmdargs.GetDIDFromContext(ctx, "dest", false)
	if ec != nil {
		return ec
	}
	cfg, log, ec := options.Setup(ctx)
	if ec != nil {
		return ec
	}
	defer func() { _ = log.Sync() }()

	req, err := build(newBuilder(cfg), submitter, dest)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ctx.Bool("unsigned") {
		w, err := options.GetWallet(ctx, cfg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		req, err = req.Sign(w, submitter)
		w.Close()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	return submit(ctx, cfg, log, req)
}

func read(ctx *cli.Context, build func(*request.Builder, string, string) (*request.Request, error)) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	submitter, ec := cmdargs.GetDIDFromContext(ctx, "submitter", false)
	if ec != nil {
		return ec
	}
	dest, ec := cmdargs.GetDIDFromContext(ctx, "dest", false)
	if ec != nil {
		return ec
	}
	cfg, log, ec := options.Setup(ctx)
	if ec != nil {
		return ec
	}
	defer func() { _ = log.Sync() }()

	req, err := build(newBuilder(cfg), submitter, dest)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return submit(ctx, cfg, log, req)
}

func newBuilder(cfg config.Config) *request.Builder {
	return request.NewBuilder(cfg.Pool.ProtocolVersion, nil)
}

// submit sends the request and prints the result of the reply. With --dry-run
// it prints the request itself.
func submit(ctx *cli.Context, cfg config.Config, log *zap.Logger, req *request.Request) error {
	if ctx.Bool("dry-run") {
		b, err := req.Bytes()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, string(b))
		return nil
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	l, closer, ec := options.GetLedger(gctx, ctx, cfg, log)
	if ec != nil {
		return ec
	}
	defer closer()

	e, err := l.SubmitRequest(gctx, req)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	res, err := e.Interpret()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, res, "", "  "); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, out.String())
	return nil
}
