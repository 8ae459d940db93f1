/*
Package request builds, validates, serializes and signs ledger transaction requests.

A Request is produced by a Builder from typed parameters, checked against the
ledger schema before anything is sent to the pool and optionally signed once. The
JSON form produced by Bytes is the wire form accepted by validator nodes:

	{"reqId":1536952084743836000,"identifier":"Th7MpTaRZVRYnPiabds81Y",
	 "operation":{"type":"100","dest":"...","raw":"{\"endpoint\":...}"},
	 "protocolVersion":2,"signature":"..."}
*/
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
)

// DefaultProtocolVersion is the wire format revision used unless a Builder is
// configured with another one.
const DefaultProtocolVersion = 2

// Transaction type codes.
const (
	TypeNym       = "1"
	TypeAttrib    = "100"
	TypeGetAttrib = "104"
	TypeGetNym    = "105"
)

var (
	// ErrInvalidStructure is returned for every malformed request detected on the
	// client side. It's the same error kind the identifier codec returns.
	ErrInvalidStructure = did.ErrInvalidStructure
	// ErrAlreadySigned is returned when signing a request that already has a
	// signature.
	ErrAlreadySigned = errors.New("request is already signed")
)

type (
	// Request is a single ledger operation. It must not be changed after
	// signing, the signature covers all of its fields.
	Request struct {
		// ReqID correlates the request with pool replies, it's unique per
		// client session.
		ReqID uint64
		// Identifier is the submitter identifier, reads need one too.
		Identifier string `validate:"required,did"`
		// Operation is the payload, one of the *Operation types of this package.
		Operation Operation `validate:"-"`
		// ProtocolVersion selects the wire format revision.
		ProtocolVersion int `validate:"gt=0"`
		// Signature is a base58-encoded signature of SigningPayload.
		Signature string
	}

	// Operation is a typed ledger operation. It's implemented by AttribOperation,
	// GetAttribOperation, NymOperation and GetNymOperation only.
	Operation interface {
		json.Marshaler
		// Type returns transaction type code.
		Type() string
		// IsWrite is true for operations changing the ledger state, they need
		// an identifier and a signature to be accepted.
		IsWrite() bool

		check() error
	}

	requestAux struct {
		ReqID           uint64          `json:"reqId"`
		Identifier      string          `json:"identifier,omitempty"`
		Operation       json.RawMessage `json:"operation"`
		ProtocolVersion int             `json:"protocolVersion"`
		Signature       string          `json:"signature,omitempty"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
func (r *Request) MarshalJSON() ([]byte, error) {
	if r.Operation == nil {
		return nil, fmt.Errorf("%w: no operation", ErrInvalidStructure)
	}
	op, err := r.Operation.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return marshal(requestAux{
		ReqID:           r.ReqID,
		Identifier:      r.Identifier,
		Operation:       op,
		ProtocolVersion: r.ProtocolVersion,
		Signature:       r.Signature,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *Request) UnmarshalJSON(data []byte) error {
	aux := new(requestAux)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Operation) == 0 {
		return fmt.Errorf("%w: no operation", ErrInvalidStructure)
	}
	op, err := DecodeOperation(aux.Operation)
	if err != nil {
		return err
	}
	*r = Request{
		ReqID:           aux.ReqID,
		Identifier:      aux.Identifier,
		Operation:       op,
		ProtocolVersion: aux.ProtocolVersion,
		Signature:       aux.Signature,
	}
	return nil
}

// Bytes returns the wire form of the request.
func (r *Request) Bytes() ([]byte, error) {
	return r.MarshalJSON()
}

// IsSigned tells whether the request has a signature.
func (r *Request) IsSigned() bool {
	return len(r.Signature) != 0
}

// marshal is json.Marshal without HTML escaping, raw attribute values must be
// transferred as is.
func marshal(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
