package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/vdr-go/pkg/crypto/hash"
	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
)

// Signer produces a signature of msg with the key of the given identifier.
// It's implemented by wallet.Wallet.
type Signer interface {
	SignMessage(msg []byte, did string) ([]byte, error)
}

// Top-level fields never covered by the signature.
var unsignedFields = map[string]bool{
	"signature":  true,
	"signatures": true,
	"fees":       true,
}

// SigningPayload returns the byte string that is signed. It's the request
// serialized as sorted "key:value" pairs joined with "|", attribute values of
// ATTRIB and GET_ATTRIB are replaced by their sha256 hashes.
func (r *Request) SigningPayload() ([]byte, error) {
	raw, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	typ := r.Operation.Type()
	buf := new(strings.Builder)
	serializeForSigning(buf, v, true, typ == TypeAttrib || typ == TypeGetAttrib)
	return []byte(buf.String()), nil
}

// Sign returns a copy of the request with the signature set, r itself is not
// changed. The key is the one of the request identifier, a non-empty id must
// name the same identifier (in short or qualified form).
func (r *Request) Sign(s Signer, id string) (*Request, error) {
	if r.IsSigned() {
		return nil, ErrAlreadySigned
	}
	if len(r.Identifier) == 0 {
		return nil, fmt.Errorf("%w: no identifier to sign with", ErrInvalidStructure)
	}
	if len(id) != 0 {
		short, err := did.Normalize(id)
		if err != nil {
			return nil, err
		}
		if short != r.Identifier {
			return nil, fmt.Errorf("%w: request of %s can't be signed by %s", ErrInvalidStructure, r.Identifier, short)
		}
	}
	signed := *r
	msg, err := signed.SigningPayload()
	if err != nil {
		return nil, err
	}
	sig, err := s.SignMessage(msg, signed.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request %d: %w", r.ReqID, err)
	}
	signed.Signature = base58.Encode(sig)
	return &signed, nil
}

func serializeForSigning(buf *strings.Builder, v any, top bool, hashAttrib bool) {
	switch v := v.(type) {
	case nil:
		buf.WriteString("None")
	case bool:
		if v {
			buf.WriteString("True")
		} else {
			buf.WriteString("False")
		}
	case json.Number:
		buf.WriteString(v.String())
	case string:
		buf.WriteString(v)
	case []any:
		for i := range v {
			if i != 0 {
				buf.WriteByte(',')
			}
			serializeForSigning(buf, v[i], false, hashAttrib)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			if top && unsignedFields[k] {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i != 0 {
				buf.WriteByte('|')
			}
			buf.WriteString(k)
			buf.WriteByte(':')
			val := v[k]
			if s, ok := val.(string); ok && hashAttrib && (k == "raw" || k == "hash" || k == "enc") {
				val = hash.Sha256Hex([]byte(s))
			}
			serializeForSigning(buf, val, false, hashAttrib)
		}
	}
}
