/*
Package hash contains the hashing functions used for ledger attributes.
*/
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// Sha256Hex returns the hex-encoded sha256 of data, it's the form attribute
// hashes take in requests and signing payloads.
func Sha256Hex(data []byte) string {
	h := Sha256(data)
	return hex.EncodeToString(h[:])
}
