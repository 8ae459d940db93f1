/*
Package did implements ledger identifier (DID) and verification key encoding.

Identifiers are base58 strings (Bitcoin alphabet) that decode either to 16 bytes
(an abbreviated DID derived from the first half of a verification key) or to 32
bytes (a full ed25519 verification key used as an identifier). A fully-qualified
form "did:<method>:<id>" is accepted everywhere an identifier is expected.
*/
package did

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// ShortLen is the decoded length of an abbreviated identifier.
	ShortLen = 16
	// FullLen is the decoded length of a verification key and of an identifier
	// equal to one.
	FullLen = 32

	// AbbreviatedPrefix marks a verkey that only carries the second half of the
	// key, the first half being the identifier itself.
	AbbreviatedPrefix = "~"

	qualifiedPrefix = "did:"
)

// ErrInvalidStructure is returned for any malformed identifier or key. Callers
// should match it with errors.Is, the wrapping message explains the cause.
var ErrInvalidStructure = errors.New("invalid structure")

// Normalize strips the "did:<method>:" prefix if there is one and checks the
// result with Validate.
func Normalize(id string) (string, error) {
	short := unqualify(id)
	if err := validate(short); err != nil {
		return "", err
	}
	return short, nil
}

// Validate checks that id is a base58 string of a proper length.
func Validate(id string) error {
	return validate(unqualify(id))
}

// Decode returns the raw identifier bytes.
func Decode(id string) ([]byte, error) {
	short := unqualify(id)
	if len(short) == 0 {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidStructure)
	}
	b, err := base58.Decode(short)
	if err != nil {
		return nil, fmt.Errorf("%w: identifier %q is not base58: %v", ErrInvalidStructure, short, err)
	}
	if len(b) != ShortLen && len(b) != FullLen {
		return nil, fmt.Errorf("%w: identifier %q decodes to %d bytes, expected %d or %d",
			ErrInvalidStructure, short, len(b), ShortLen, FullLen)
	}
	return b, nil
}

// FromVerkey derives an abbreviated identifier from the verification key.
func FromVerkey(verkey []byte) string {
	if len(verkey) < ShortLen {
		return base58.Encode(verkey)
	}
	return base58.Encode(verkey[:ShortLen])
}

// EncodeVerkey returns the full base58 form of the key.
func EncodeVerkey(verkey []byte) string {
	return base58.Encode(verkey)
}

// AbbreviateVerkey returns the "~"-prefixed key form that is only meaningful
// together with the identifier derived from the same key.
func AbbreviateVerkey(verkey []byte) string {
	if len(verkey) != FullLen {
		return EncodeVerkey(verkey)
	}
	return AbbreviatedPrefix + base58.Encode(verkey[ShortLen:])
}

// DecodeVerkey decodes full or abbreviated verkey, id is only used for the
// abbreviated form.
func DecodeVerkey(id, verkey string) ([]byte, error) {
	if !strings.HasPrefix(verkey, AbbreviatedPrefix) {
		b, err := base58.Decode(verkey)
		if err != nil {
			return nil, fmt.Errorf("%w: verkey is not base58: %v", ErrInvalidStructure, err)
		}
		if len(b) != FullLen {
			return nil, fmt.Errorf("%w: verkey decodes to %d bytes, expected %d", ErrInvalidStructure, len(b), FullLen)
		}
		return b, nil
	}
	head, err := Decode(id)
	if err != nil {
		return nil, err
	}
	if len(head) != ShortLen {
		return nil, fmt.Errorf("%w: abbreviated verkey needs a %d-byte identifier", ErrInvalidStructure, ShortLen)
	}
	tail, err := base58.Decode(strings.TrimPrefix(verkey, AbbreviatedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: verkey is not base58: %v", ErrInvalidStructure, err)
	}
	if len(tail) != FullLen-ShortLen {
		return nil, fmt.Errorf("%w: abbreviated verkey decodes to %d bytes, expected %d",
			ErrInvalidStructure, len(tail), FullLen-ShortLen)
	}
	return append(head, tail...), nil
}

func validate(id string) error {
	_, err := Decode(id)
	return err
}

// unqualify turns "did:sov:Th7MpTaRZVRYnPiabds81Y" into "Th7MpTaRZVRYnPiabds81Y".
func unqualify(id string) string {
	if !strings.HasPrefix(id, qualifiedPrefix) {
		return id
	}
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}
