package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
	"go.uber.org/atomic"
)

// Role names accepted by NYM builders and their ledger codes.
var roles = map[string]string{
	"TRUSTEE":         "0",
	"STEWARD":         "2",
	"TRUST_ANCHOR":    "101",
	"ENDORSER":        "101",
	"NETWORK_MONITOR": "201",
}

// IDGenerator produces request IDs that are unique and increasing within the
// process. IDs start from the current time in nanoseconds, so they don't repeat
// across restarts either. It's safe for concurrent use.
type IDGenerator struct {
	last *atomic.Uint64
}

// NewIDGenerator returns a new IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{last: atomic.NewUint64(0)}
}

// Next returns the next request ID.
func (g *IDGenerator) Next() uint64 {
	for {
		last := g.last.Load()
		next := uint64(time.Now().UnixNano())
		if next <= last {
			next = last + 1
		}
		if g.last.CAS(last, next) {
			return next
		}
	}
}

// Builder creates validated requests. It has no mutable state other than its
// ID source and can be shared between goroutines.
type Builder struct {
	protocolVersion int
	nextID          func() uint64
}

var defaultBuilder = NewBuilder(DefaultProtocolVersion, nil)

// NewBuilder returns a Builder producing requests of the given protocol version
// with IDs from nextID. Zero version means DefaultProtocolVersion, nil nextID
// means a new IDGenerator.
func NewBuilder(protocolVersion int, nextID func() uint64) *Builder {
	if protocolVersion == 0 {
		protocolVersion = DefaultProtocolVersion
	}
	if nextID == nil {
		nextID = NewIDGenerator().Next
	}
	return &Builder{
		protocolVersion: protocolVersion,
		nextID:          nextID,
	}
}

// ProtocolVersion returns the protocol version used by the Builder.
func (b *Builder) ProtocolVersion() int {
	return b.protocolVersion
}

// Attrib creates an ATTRIB request setting data for dest.
func (b *Builder) Attrib(identifier, dest string, data AttribData) (*Request, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: one of raw, hash or enc is required", ErrInvalidStructure)
	}
	d, err := did.Normalize(dest)
	if err != nil {
		return nil, err
	}
	return b.build(identifier, &AttribOperation{Dest: d, Data: data})
}

// GetAttrib creates a GET_ATTRIB request, selector can be nil.
func (b *Builder) GetAttrib(identifier, dest string, selector AttribData) (*Request, error) {
	d, err := did.Normalize(dest)
	if err != nil {
		return nil, err
	}
	return b.build(identifier, &GetAttribOperation{Dest: d, Selector: selector})
}

// Nym creates a NYM request. Role can be a role name (like "TRUSTEE"), a role
// code (like "0") or empty to leave it unchanged.
func (b *Builder) Nym(identifier, dest, verkey, alias, role string) (*Request, error) {
	d, err := did.Normalize(dest)
	if err != nil {
		return nil, err
	}
	op := &NymOperation{Dest: d, Verkey: verkey, Alias: alias}
	if len(role) != 0 {
		code, ok := roles[strings.ToUpper(role)]
		if !ok {
			code = role
		}
		op.Role = &code
	}
	return b.build(identifier, op)
}

// GetNym creates a GET_NYM request.
func (b *Builder) GetNym(identifier, dest string) (*Request, error) {
	d, err := did.Normalize(dest)
	if err != nil {
		return nil, err
	}
	return b.build(identifier, &GetNymOperation{Dest: d})
}

// BuildAttribRequest is Attrib taking the payload as three strings, exactly
// one of them must be non-empty.
func (b *Builder) BuildAttribRequest(identifier, dest, hash, raw, enc string) (*Request, error) {
	data, err := NewAttribData(hash, raw, enc)
	if err != nil {
		return nil, err
	}
	return b.Attrib(identifier, dest, data)
}

// BuildGetAttribRequest is GetAttrib taking the selector as three strings, at
// most one of them can be non-empty.
func (b *Builder) BuildGetAttribRequest(identifier, dest, raw, hash, enc string) (*Request, error) {
	sel, err := NewAttribData(hash, raw, enc)
	if err != nil {
		return nil, err
	}
	return b.GetAttrib(identifier, dest, sel)
}

func (b *Builder) build(identifier string, op Operation) (*Request, error) {
	identifier, err := did.Normalize(identifier)
	if err != nil {
		return nil, fmt.Errorf("bad submitter: %w", err)
	}
	r := &Request{
		Identifier:      identifier,
		Operation:       op,
		ProtocolVersion: b.protocolVersion,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.ReqID = b.nextID()
	return r, nil
}

// BuildAttribRequest builds an ATTRIB request with the default Builder.
func BuildAttribRequest(identifier, dest, hash, raw, enc string) (*Request, error) {
	return defaultBuilder.BuildAttribRequest(identifier, dest, hash, raw, enc)
}

// BuildGetAttribRequest builds a GET_ATTRIB request with the default Builder.
func BuildGetAttribRequest(identifier, dest, raw, hash, enc string) (*Request, error) {
	return defaultBuilder.BuildGetAttribRequest(identifier, dest, raw, hash, enc)
}

// BuildNymRequest builds a NYM request with the default Builder.
func BuildNymRequest(identifier, dest, verkey, alias, role string) (*Request, error) {
	return defaultBuilder.Nym(identifier, dest, verkey, alias, role)
}

// BuildGetNymRequest builds a GET_NYM request with the default Builder.
func BuildGetNymRequest(identifier, dest string) (*Request, error) {
	return defaultBuilder.GetNym(identifier, dest)
}
