package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/vdr-go/cli/did"
	"github.com/nspcc-dev/vdr-go/cli/ledger"
	"github.com/nspcc-dev/vdr-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "vdr-go\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a vdr-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "vdr-go"
	ctl.Version = config.Version
	ctl.Usage = "Identity ledger client: build, sign, submit and read ledger requests"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, did.NewCommands()...)
	ctl.Commands = append(ctl.Commands, ledger.NewCommands()...)
	return ctl
}
