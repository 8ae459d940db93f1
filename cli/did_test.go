package main

import (
	"strings"
	"testing"

	"github.com/nspcc-dev/vdr-go/internal/fakepool"
	"github.com/stretchr/testify/require"
)

func TestDIDCreate(t *testing.T) {
	e := newExecutor(t, false)

	t.Run("from seed", func(t *testing.T) {
		e.Run(t, "vdr-go", "did", "create", "-w", e.Wallet, "--seed", fakepool.StewardSeed, "--metadata", "steward")
		e.checkNextLine(t, "^DID: "+stewardDID+"$")
		e.checkNextLine(t, "^Verkey: "+stewardKey+"$")
		e.checkEOF(t)
	})
	t.Run("same seed again", func(t *testing.T) {
		e.Run(t, "vdr-go", "did", "create", "-w", e.Wallet, "--seed", fakepool.StewardSeed)
		e.checkNextLine(t, "^DID: "+stewardDID+"$")
	})
	t.Run("random", func(t *testing.T) {
		e.Run(t, "vdr-go", "did", "create", "-w", e.Wallet)
		line := e.getNextLine(t)
		require.True(t, strings.HasPrefix(line, "DID: "))
		require.NotEqual(t, "DID: "+stewardDID, line)
	})
	t.Run("bad seed", func(t *testing.T) {
		e.RunWithError(t, "vdr-go", "did", "create", "-w", e.Wallet, "--seed", "short")
	})
	t.Run("extra arguments", func(t *testing.T) {
		e.RunWithError(t, "vdr-go", "did", "create", "-w", e.Wallet, "something")
	})
}

func TestDIDList(t *testing.T) {
	e := newExecutor(t, false)
	e.importDID(t, fakepool.TrusteeSeed)
	e.Run(t, "vdr-go", "did", "create", "-w", e.Wallet, "--seed", fakepool.StewardSeed, "--metadata", "steward")

	e.Run(t, "vdr-go", "did", "list", "-w", e.Wallet)
	e.checkNextLine(t, `^DID\s+Verkey\s+Metadata$`)
	e.checkNextLine(t, "^"+stewardDID+`\s+`+stewardKey+`\s+steward$`)
	e.checkNextLine(t, "^"+trusteeDID+`\s+`)
	e.checkEOF(t)
}
