package cmdargs

import (
	"flag"
	"testing"

	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	for _, name := range []string{"raw", "hash", "enc", "dest"} {
		set.String(name, "", "")
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestEnsureNone(t *testing.T) {
	require.Nil(t, EnsureNone(newContext(t)))
	require.NotNil(t, EnsureNone(newContext(t, "something")))
}

func TestGetAttribDataFromContext(t *testing.T) {
	data, ec := GetAttribDataFromContext(newContext(t, "--raw", `{"a":1}`), true)
	require.Nil(t, ec)
	require.Equal(t, request.Raw(`{"a":1}`), data)

	data, ec = GetAttribDataFromContext(newContext(t, "--enc", "abc"), false)
	require.Nil(t, ec)
	require.Equal(t, request.Enc("abc"), data)

	data, ec = GetAttribDataFromContext(newContext(t), false)
	require.Nil(t, ec)
	require.Nil(t, data)

	_, ec = GetAttribDataFromContext(newContext(t), true)
	require.NotNil(t, ec)

	_, ec = GetAttribDataFromContext(newContext(t, "--raw", "a", "--hash", "b"), false)
	require.NotNil(t, ec)
}

func TestGetDIDFromContext(t *testing.T) {
	id, ec := GetDIDFromContext(newContext(t, "--dest", "did:sov:Th7MpTaRZVRYnPiabds81Y"), "dest", false)
	require.Nil(t, ec)
	require.Equal(t, "Th7MpTaRZVRYnPiabds81Y", id)

	id, ec = GetDIDFromContext(newContext(t), "dest", true)
	require.Nil(t, ec)
	require.Equal(t, "", id)

	_, ec = GetDIDFromContext(newContext(t), "dest", false)
	require.NotNil(t, ec)

	_, ec = GetDIDFromContext(newContext(t, "--dest", "0OIl"), "dest", false)
	require.NotNil(t, ec)
}
