package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/vdr-go/cli/app"
	"github.com/nspcc-dev/vdr-go/internal/fakepool"
	"github.com/nspcc-dev/vdr-go/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const (
	trusteeDID = "V4SGRU86Z58d6TV7PBUe6f"
	stewardDID = "Th7MpTaRZVRYnPiabds81Y"
	stewardKey = "FYmoFw55GeQH7SRFa37dkx1d2dZ3zUF8ckg7wmL7ofN4"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Pool is a fake validator pool behind Server (can be empty).
	Pool *fakepool.Pool
	// Server serves Pool over HTTP.
	Server *httptest.Server
	// ConfigFile is a configuration pointing to Server.
	ConfigFile string
	// Wallet is a wallet path.
	Wallet string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

// testVersion is the client version reported in tests, urfave/cli hides
// --version without it.
const testVersion = "0.1.0-test"

func newExecutor(t *testing.T, needPool bool) *executor {
	config.Version = testVersion
	dir := t.TempDir()
	e := &executor{
		CLI:    app.New(),
		Wallet: filepath.Join(dir, "wallet.db"),
		Out:    bytes.NewBuffer(nil),
		Err:    bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	if needPool {
		e.Pool = fakepool.New(nil)
		e.Server = httptest.NewServer(e.Pool)
		e.ConfigFile = filepath.Join(dir, "pool.test.yml")
		cfg := fmt.Sprintf(`Pool:
  Name: test
  Transport: http
  Nodes: [%[1]q, %[1]q, %[1]q, %[1]q]
  ProtocolVersion: 2
ApplicationConfiguration:
  LogPath: %[2]q
  Wallet:
    Path: %[3]q
`, e.Server.URL, filepath.Join(dir, "log", "vdr.log"), e.Wallet)
		require.NoError(t, os.WriteFile(e.ConfigFile, []byte(cfg), 0644))
	}
	t.Cleanup(func() {
		e.Close(t)
	})
	return e
}

func (e *executor) Close(t *testing.T) {
	if e.Server != nil {
		e.Server.Close()
	}
}

// importDID stores a DID derived from seed in the executor wallet.
func (e *executor) importDID(t *testing.T, seed string) string {
	e.Run(t, "vdr-go", "did", "create", "--wallet", e.Wallet, "--seed", seed)
	line := e.getNextLine(t)
	return strings.TrimPrefix(line, "DID: ")
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// RunWithErrorCheck runs command and checks that there was an error with the
// specified message.
func (e *executor) RunWithErrorCheck(t *testing.T, msg string, args ...string) {
	ch := setExitFunc()
	err := e.run(args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), msg)
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}
