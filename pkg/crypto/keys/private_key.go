/*
Package keys implements ed25519 identity keys used to sign ledger requests.
*/
package keys

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// SeedLen is the length of a key seed.
const SeedLen = ed25519.SeedSize

// ErrBadSeed is returned for seeds of a wrong length.
var ErrBadSeed = errors.New("seed must be 32 bytes or 64 hex characters")

// PrivateKey is an identity signing key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// NewPrivateKey creates a new random PrivateKey.
func NewPrivateKey() (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: priv}, nil
}

// NewPrivateKeyFromSeed returns a PrivateKey for the given seed, it's either
// 32 arbitrary characters (like "000000000000000000000000Steward1") or their
// hex encoding.
func NewPrivateKeyFromSeed(seed string) (*PrivateKey, error) {
	b := []byte(seed)
	switch len(seed) {
	case SeedLen:
	case 2 * SeedLen:
		var err error
		b, err = hex.DecodeString(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSeed, err)
		}
	default:
		return nil, ErrBadSeed
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey for the given 32-byte seed.
func NewPrivateKeyFromBytes(seed []byte) (*PrivateKey, error) {
	if len(seed) != SeedLen {
		return nil, fmt.Errorf("invalid seed length: expected %d bytes got %d", SeedLen, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Seed returns the key seed.
func (p *PrivateKey) Seed() []byte {
	return p.key.Seed()
}

// PublicKey returns the verification key.
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := p.key.Public().(ed25519.PublicKey)
	return &PublicKey{key: pub}
}

// DID returns the abbreviated identifier of the key.
func (p *PrivateKey) DID() string {
	return p.PublicKey().DID()
}

// Sign signs msg.
func (p *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(p.key, msg)
}
