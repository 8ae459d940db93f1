/*
Package wallet implements a persistent store of identifiers and their signing
keys backed by a single BoltDB file.
*/
package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nspcc-dev/vdr-go/pkg/crypto/keys"
	"github.com/nspcc-dev/vdr-go/pkg/encoding/did"
	"go.etcd.io/bbolt"
)

// Bucket keeps identity records keyed by identifier.
var Bucket = []byte("DIDs")

var (
	// ErrDIDNotFound is returned when the wallet has no key for an identifier.
	ErrDIDNotFound = errors.New("DID not found")
	// ErrDIDExists is returned when an identifier is already stored with a
	// different key.
	ErrDIDExists = errors.New("DID already exists")
)

// Wallet stores identifiers along with their keys.
type Wallet struct {
	db *bbolt.DB
}

// DIDInfo describes a stored identifier.
type DIDInfo struct {
	DID      string    `json:"did"`
	Verkey   string    `json:"verkey"`
	Metadata string    `json:"metadata,omitempty"`
	Created  time.Time `json:"created"`
}

// record is an on-disk representation of a stored identifier.
type record struct {
	DIDInfo
	Seed string `json:"seed"`
}

// Open opens (creating if needed) the wallet at the given path.
func Open(path string) (*Wallet, error) {
	err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("could not create dir for wallet: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open wallet: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return fmt.Errorf("could not create root bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Wallet{db: db}, nil
}

// Close releases all wallet resources.
func (w *Wallet) Close() error {
	return w.db.Close()
}

// CreateAndStoreDID creates a key from the given seed (random one if seed is
// empty) and stores it under id, which defaults to the identifier derived from
// the key. Storing the same key twice is a no-op. It returns the identifier
// and the full verkey.
func (w *Wallet) CreateAndStoreDID(seed, id string) (string, string, error) {
	var (
		priv *keys.PrivateKey
		err  error
	)
	if seed == "" {
		priv, err = keys.NewPrivateKey()
	} else {
		priv, err = keys.NewPrivateKeyFromSeed(seed)
	}
	if err != nil {
		return "", "", err
	}
	if id == "" {
		id = priv.DID()
	} else if id, err = did.Normalize(id); err != nil {
		return "", "", err
	}
	pub := priv.PublicKey()
	rec := record{
		DIDInfo: DIDInfo{
			DID:     id,
			Verkey:  pub.String(),
			Created: time.Now().UTC(),
		},
		Seed: hex.EncodeToString(priv.Seed()),
	}
	err = w.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if old := b.Get([]byte(id)); old != nil {
			var existing record
			if err := json.Unmarshal(old, &existing); err != nil {
				return fmt.Errorf("corrupted record for %s: %w", id, err)
			}
			if existing.Verkey != rec.Verkey {
				return fmt.Errorf("%w: %s", ErrDIDExists, id)
			}
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return "", "", err
	}
	return id, rec.Verkey, nil
}

// SetMetadata attaches arbitrary metadata to a stored identifier.
func (w *Wallet) SetMetadata(id, metadata string) error {
	return w.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		rec.Metadata = metadata
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(Bucket).Put([]byte(rec.DID), data)
	})
}

// GetKey returns the private key of the identifier.
func (w *Wallet) GetKey(id string) (*keys.PrivateKey, error) {
	var rec *record
	err := w.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = getRecord(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	seed, err := hex.DecodeString(rec.Seed)
	if err != nil {
		return nil, fmt.Errorf("corrupted seed for %s: %w", rec.DID, err)
	}
	return keys.NewPrivateKeyFromBytes(seed)
}

// GetVerkey returns the full verkey of the identifier.
func (w *Wallet) GetVerkey(id string) (string, error) {
	info, err := w.GetDID(id)
	if err != nil {
		return "", err
	}
	return info.Verkey, nil
}

// GetDID returns the stored identifier description.
func (w *Wallet) GetDID(id string) (*DIDInfo, error) {
	var info *DIDInfo
	err := w.db.View(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		info = &rec.DIDInfo
		return nil
	})
	return info, err
}

// ListDIDs returns all stored identifiers sorted by identifier.
func (w *Wallet) ListDIDs() ([]DIDInfo, error) {
	var res []DIDInfo
	err := w.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupted record for %s: %w", k, err)
			}
			res = append(res, rec.DIDInfo)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DID < res[j].DID })
	return res, nil
}

// SignMessage signs msg with the key of the given identifier.
func (w *Wallet) SignMessage(msg []byte, id string) ([]byte, error) {
	priv, err := w.GetKey(id)
	if err != nil {
		return nil, err
	}
	return priv.Sign(msg), nil
}

func getRecord(tx *bbolt.Tx, id string) (*record, error) {
	short, err := did.Normalize(id)
	if err != nil {
		return nil, err
	}
	data := tx.Bucket(Bucket).Get([]byte(short))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrDIDNotFound, short)
	}
	rec := new(record)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("corrupted record for %s: %w", short, err)
	}
	return rec, nil
}
