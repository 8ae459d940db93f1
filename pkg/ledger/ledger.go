/*
Package ledger provides a high-level API to read and write identity ledger
records. It builds requests, signs them, submits them to the pool and
interprets replies, see request, response and pool packages for the
individual steps.
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"go.uber.org/zap"
)

// Submitter sends requests to the pool, it's implemented by pool.Client.
type Submitter interface {
	Submit(ctx context.Context, req *request.Request) (*response.Envelope, error)
}

// Options are Ledger options, all of them are optional.
type Options struct {
	// ProtocolVersion of requests, request.DefaultProtocolVersion if zero.
	ProtocolVersion int
	// Log is a logger, no logging if nil.
	Log *zap.Logger
}

// Ledger wraps Submitter with request building and reply interpretation.
// It's thread-safe if Submitter is.
type Ledger struct {
	pool    Submitter
	builder *request.Builder
	log     *zap.Logger
}

// New returns a Ledger using the given pool.
func New(pool Submitter, opts Options) *Ledger {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		pool:    pool,
		builder: request.NewBuilder(opts.ProtocolVersion, nil),
		log:     log,
	}
}

// Builder returns request builder used by the Ledger.
func (l *Ledger) Builder() *request.Builder {
	return l.builder
}

// SubmitRequest sends the request as is, it's not validated. Only transport
// errors are returned, REQNACK and REJECT replies are returned as
// envelopes for the caller to interpret.
func (l *Ledger) SubmitRequest(ctx context.Context, req *request.Request) (*response.Envelope, error) {
	e, err := l.pool.Submit(ctx, req)
	if err != nil {
		l.log.Warn("request submission failed", zap.Uint64("reqId", req.ReqID), zap.Error(err))
		return nil, err
	}
	l.log.Debug("request submitted",
		zap.Uint64("reqId", req.ReqID),
		zap.String("op", string(e.Op)),
		zap.String("reason", e.Reason))
	return e, nil
}

// SignAndSubmitRequest signs the request with the key of did (request
// identifier if empty) and submits it. req itself is not changed.
func (l *Ledger) SignAndSubmitRequest(ctx context.Context, s request.Signer, did string, req *request.Request) (*response.Envelope, error) {
	signed, err := req.Sign(s, did)
	if err != nil {
		return nil, err
	}
	return l.SubmitRequest(ctx, signed)
}

// Attrib sets an attribute of dest, the request is signed by submitter.
func (l *Ledger) Attrib(ctx context.Context, s request.Signer, submitter, dest string, data request.AttribData) (*response.WriteResult, error) {
	req, err := l.builder.Attrib(submitter, dest, data)
	if err != nil {
		return nil, err
	}
	res := new(response.WriteResult)
	return res, l.write(ctx, s, req, res)
}

// Nym creates or updates dest identity record, the request is signed by
// submitter.
func (l *Ledger) Nym(ctx context.Context, s request.Signer, submitter, dest, verkey, alias, role string) (*response.WriteResult, error) {
	req, err := l.builder.Nym(submitter, dest, verkey, alias, role)
	if err != nil {
		return nil, err
	}
	res := new(response.WriteResult)
	return res, l.write(ctx, s, req, res)
}

// GetAttrib reads an attribute of dest on behalf of submitter, reads are not
// signed. Missing attribute is not an error, check AttribResult.Found.
func (l *Ledger) GetAttrib(ctx context.Context, submitter, dest string, selector request.AttribData) (*response.AttribResult, error) {
	req, err := l.builder.GetAttrib(submitter, dest, selector)
	if err != nil {
		return nil, err
	}
	res := new(response.AttribResult)
	return res, l.read(ctx, req, res)
}

// GetNym reads dest identity record on behalf of submitter, it's nil if there
// is no such identity.
func (l *Ledger) GetNym(ctx context.Context, submitter, dest string) (*response.NymData, error) {
	req, err := l.builder.GetNym(submitter, dest)
	if err != nil {
		return nil, err
	}
	res := new(response.NymResult)
	if err := l.read(ctx, req, res); err != nil {
		return nil, err
	}
	return res.Nym()
}

func (l *Ledger) write(ctx context.Context, s request.Signer, req *request.Request, res any) error {
	e, err := l.SignAndSubmitRequest(ctx, s, "", req)
	if err != nil {
		return err
	}
	return decode(e, req, res)
}

func (l *Ledger) read(ctx context.Context, req *request.Request, res any) error {
	e, err := l.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	return decode(e, req, res)
}

func decode(e *response.Envelope, req *request.Request, res any) error {
	if err := e.Decode(res); err != nil {
		return fmt.Errorf("%s request %d: %w", req.Operation.Type(), req.ReqID, err)
	}
	return nil
}
