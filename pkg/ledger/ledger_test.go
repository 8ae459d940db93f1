package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/vdr-go/internal/fakepool"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"github.com/nspcc-dev/vdr-go/pkg/pool"
	"github.com/nspcc-dev/vdr-go/pkg/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const endpoint = `{"endpoint":{"ha":"127.0.0.1:5555"}}`

type testLedger struct {
	*Ledger
	pool   *fakepool.Pool
	wallet *wallet.Wallet
}

func newTestLedger(t *testing.T) testLedger {
	p := fakepool.New(nil)
	c, err := pool.New(nil, pool.Node{Transport: p}, pool.Node{Transport: p}, pool.Node{Transport: p}, pool.Node{Transport: p})
	require.NoError(t, err)

	w, err := wallet.Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	for _, seed := range []string{fakepool.TrusteeSeed, fakepool.StewardSeed} {
		_, _, err := w.CreateAndStoreDID(seed, "")
		require.NoError(t, err)
	}
	return testLedger{
		Ledger: New(c, Options{Log: zaptest.NewLogger(t)}),
		pool:   p,
		wallet: w,
	}
}

func TestUnsignedAttribIsNacked(t *testing.T) {
	l := newTestLedger(t)
	steward := l.pool.Steward.DID()

	req, err := request.BuildAttribRequest(steward, steward, "", endpoint, "")
	require.NoError(t, err)
	e, err := l.SubmitRequest(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, response.OpReqNack, e.Op)
	require.Contains(t, e.Reason, "MissingSignature()")

	_, err = e.Interpret()
	var nack *response.NackError
	require.True(t, errors.As(err, &nack))
	require.True(t, nack.Retryable())

	// Signing fixes it.
	e, err = l.SignAndSubmitRequest(context.Background(), l.wallet, "", req)
	require.NoError(t, err)
	require.Equal(t, response.OpReply, e.Op, e.Reason)
	require.False(t, req.IsSigned())
}

func TestHandAssembledRequest(t *testing.T) {
	l := newTestLedger(t)
	req := &request.Request{
		ReqID:           42,
		Identifier:      "Th7MpTaRZVRYnPiabds81Y",
		ProtocolVersion: request.DefaultProtocolVersion,
		Operation:       &request.AttribOperation{Dest: "not-a-did", Data: request.Raw(endpoint)},
	}
	require.ErrorIs(t, req.Validate(), request.ErrInvalidStructure)

	e, err := l.SubmitRequest(context.Background(), req)
	require.NoError(t, err)
	_, err = e.Interpret()
	require.ErrorIs(t, err, response.ErrRequestNacked)
	require.Equal(t, response.CategoryInvalidClientRequest, response.CategoryOf(err))
}

func TestNymAttribGetAttrib(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	trustee := l.pool.Trustee.DID()

	id, verkey, err := l.wallet.CreateAndStoreDID("", "")
	require.NoError(t, err)

	res, err := l.Nym(ctx, l.wallet, trustee, id, verkey, "service", "ENDORSER")
	require.NoError(t, err)
	require.Equal(t, request.TypeNym, res.Type)
	require.NotZero(t, res.SeqNo)

	nym, err := l.GetNym(ctx, trustee, id)
	require.NoError(t, err)
	require.NotNil(t, nym)
	require.Equal(t, verkey, nym.Verkey)
	require.Equal(t, "101", *nym.Role)
	require.Equal(t, trustee, nym.Identifier)

	res, err = l.Attrib(ctx, l.wallet, id, id, request.Raw(endpoint))
	require.NoError(t, err)
	require.Equal(t, request.TypeAttrib, res.Type)
	require.Equal(t, id, res.Identifier)

	attr, err := l.GetAttrib(ctx, id, id, request.Raw("endpoint"))
	require.NoError(t, err)
	require.True(t, attr.Found())
	require.Equal(t, endpoint, *attr.Data)

	attr, err = l.GetAttrib(ctx, "did:sov:"+id, id, request.Raw("service"))
	require.NoError(t, err)
	require.False(t, attr.Found())

	missing, err := l.GetNym(ctx, trustee, "V4SGRU86Z58d6TV7PBUe6e")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestWriteErrors(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	steward := l.pool.Steward.DID()
	trustee := l.pool.Trustee.DID()

	t.Run("rejected", func(t *testing.T) {
		_, err := l.Attrib(ctx, l.wallet, steward, trustee, request.Raw(endpoint))
		require.ErrorIs(t, err, response.ErrRequestRejected)
		var rej *response.RejectError
		require.True(t, errors.As(err, &rej))
		require.Equal(t, response.CategoryUnauthorizedClientRequest, rej.Category)
		require.False(t, rej.Retryable())
	})
	t.Run("no key", func(t *testing.T) {
		_, err := l.Attrib(ctx, l.wallet, "V4SGRU86Z58d6TV7PBUe6e", steward, request.Raw(endpoint))
		require.ErrorIs(t, err, wallet.ErrDIDNotFound)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := l.Attrib(ctx, l.wallet, steward, steward, nil)
		require.ErrorIs(t, err, request.ErrInvalidStructure)
		_, err = l.Nym(ctx, l.wallet, steward, "bad!", "", "", "")
		require.ErrorIs(t, err, request.ErrInvalidStructure)
		_, err = l.GetNym(ctx, steward, "bad!")
		require.ErrorIs(t, err, request.ErrInvalidStructure)
		_, err = l.GetAttrib(ctx, steward, "bad!", nil)
		require.ErrorIs(t, err, request.ErrInvalidStructure)
		_, err = l.GetNym(ctx, "", steward)
		require.ErrorIs(t, err, request.ErrInvalidStructure)
		_, err = l.GetAttrib(ctx, "", steward, request.Raw("endpoint"))
		require.ErrorIs(t, err, request.ErrInvalidStructure)
	})
	t.Run("transport", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := l.GetNym(ctx, steward, steward)
		require.Error(t, err)
	})
}
