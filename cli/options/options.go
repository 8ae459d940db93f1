/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/vdr-go/pkg/config"
	"github.com/nspcc-dev/vdr-go/pkg/ledger"
	"github.com/nspcc-dev/vdr-go/pkg/pool"
	"github.com/nspcc-dev/vdr-go/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for pool requests.
const DefaultTimeout = 10 * time.Second

// Config is a set of flags for choosing the configuration file.
var Config = []cli.Flag{
	cli.StringFlag{
		Name:  "config-path",
		Usage: "path to directory with per-pool configuration files (may be overridden by --config-file option for the configuration file)",
	},
	cli.StringFlag{
		Name:  "config-file",
		Usage: "path to the configuration file (overrides --config-path option)",
	},
	cli.StringFlag{
		Name:  "pool",
		Usage: "pool name, pool.<name>.yml is loaded from the configuration directory",
	},
}

// Pool is a set of flags used for pool connections (nodes and timeout).
var Pool = []cli.Flag{
	cli.StringSliceFlag{
		Name:  "node, n",
		Usage: "pool node address (can be repeated, overrides configured nodes)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Wallet is a flag for commands using the DID wallet.
var Wallet = cli.StringFlag{
	Name:  "wallet, w",
	Usage: "path to the DID wallet (overrides configured one)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

var errNoNodes = errors.New("no pool nodes specified, use option '--node' or a configuration file")

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext loads configuration file chosen by flags. The default
// configuration is used when no file is specified.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	if configPath := ctx.String("config-path"); len(configPath) != 0 {
		return config.Load(configPath, ctx.String("pool"))
	}
	return config.Default(), nil
}

// GetWallet opens the wallet specified by flag or configuration.
func GetWallet(ctx *cli.Context, cfg config.Config) (*wallet.Wallet, error) {
	path := ctx.String("wallet")
	if len(path) == 0 {
		path = cfg.ApplicationConfiguration.Wallet.Path
	}
	return wallet.Open(path)
}

// GetLedger returns a Ledger connected to the pool nodes specified by flags or
// configuration. The returned function closes pool connections.
func GetLedger(gctx context.Context, ctx *cli.Context, cfg config.Config, log *zap.Logger) (*ledger.Ledger, func(), *cli.ExitError) {
	pcfg := cfg.Pool
	if nodes := ctx.StringSlice("node"); len(nodes) != 0 {
		pcfg.Nodes = nodes
		if err := pcfg.Validate(); err != nil {
			return nil, nil, cli.NewExitError(err, 1)
		}
	}
	if len(pcfg.Nodes) == 0 {
		return nil, nil, cli.NewExitError(errNoNodes, 1)
	}
	c, err := pool.NewFromConfig(gctx, pcfg, log)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	l := ledger.New(c, ledger.Options{ProtocolVersion: pcfg.ProtocolVersion, Log: log})
	return l, c.Close, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	return cc.Build()
}

// Setup loads configuration and creates a logger for a command.
func Setup(ctx *cli.Context) (config.Config, *zap.Logger, *cli.ExitError) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return config.Config{}, nil, cli.NewExitError(err, 1)
	}
	log, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return config.Config{}, nil, cli.NewExitError(err, 1)
	}
	return cfg, log, nil
}
