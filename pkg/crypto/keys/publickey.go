package keys

import (
	"fmt"

	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is a verification key ("verkey").
type PublicKey struct {
	key ed25519.PublicKey
}

// NewPublicKeyFromString decodes full or abbreviated ("~"-prefixed) verkey,
// id is only needed for the abbreviated one.
func NewPublicKeyFromString(id, verkey string) (*PublicKey, error) {
	b, err := did.DecodeVerkey(id, verkey)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b)
}

// NewPublicKeyFromBytes wraps raw key bytes.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid verkey length: expected %d bytes got %d", ed25519.PublicKeySize, len(b))
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return &PublicKey{key: key}, nil
}

// Bytes returns raw key bytes.
func (p *PublicKey) Bytes() []byte {
	return []byte(p.key)
}

// String returns full base58 verkey.
func (p *PublicKey) String() string {
	return did.EncodeVerkey(p.key)
}

// Abbreviated returns "~"-prefixed verkey.
func (p *PublicKey) Abbreviated() string {
	return did.AbbreviateVerkey(p.key)
}

// DID returns the abbreviated identifier derived from the key.
func (p *PublicKey) DID() string {
	return did.FromVerkey(p.key)
}

// Verify checks signature of msg.
func (p *PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(p.key, msg, sig)
}

// Equal returns true when both keys are the same.
func (p *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && p.key.Equal(other.key)
}
