/*
Package cmdargs contains helpers to parse command arguments and flags shared
by several commands.
*/
package cmdargs

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/urfave/cli"
)

// AttribFlags are the flags selecting attribute payload of ATTRIB and
// GET_ATTRIB commands.
var AttribFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "raw",
		Usage: "raw attribute (JSON object for writes, attribute name for reads)",
	},
	cli.StringFlag{
		Name:  "hash",
		Usage: "hex-encoded sha256 of the attribute",
	},
	cli.StringFlag{
		Name:  "enc",
		Usage: "encrypted attribute",
	},
}

var errNoAttrib = errors.New("one of --raw, --hash or --enc is required")

// EnsureNone returns an error if there are any positional arguments present.
// It can be used by commands that don't accept positional arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// GetAttribDataFromContext returns attribute payload set by AttribFlags, nil if
// none was given and required is false.
func GetAttribDataFromContext(ctx *cli.Context, required bool) (request.AttribData, *cli.ExitError) {
	data, err := request.NewAttribData(ctx.String("hash"), ctx.String("raw"), ctx.String("enc"))
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	if data == nil && required {
		return nil, cli.NewExitError(errNoAttrib, 1)
	}
	return data, nil
}

// GetDIDFromContext returns the DID set by the named flag in its short form.
// An empty value is an error unless optional is set.
func GetDIDFromContext(ctx *cli.Context, name string, optional bool) (string, *cli.ExitError) {
	id := ctx.String(name)
	if len(id) == 0 {
		if optional {
			return "", nil
		}
		return "", cli.NewExitError(fmt.Errorf("missing --%s", name), 1)
	}
	id, err := did.Normalize(id)
	if err != nil {
		return "", cli.NewExitError(fmt.Errorf("invalid --%s: %w", name, err), 1)
	}
	return id, nil
}
