// Package kv implements the encrypted, reservation-gated key-value store
// a bbolt-backed ordered map whose values are sealed with
// an AEAD cipher keyed off the operator's password.
package kv

import (
	"bytes"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/shardkeep/partyd/internal/kverrors"
)

var errShortCiphertext = errors.New("kv: ciphertext shorter than nonce")

const (
	bucketValues = "values"
	bucketMeta   = "meta"

	metaSalt     = "salt"
	metaSentinel = "sentinel"
)

const (
	tagReserved byte = 0x00
	tagValue    byte = 0x01
)

const saltSize = 16

var sentinelPlaintext = []byte("partyd-kv-sentinel-v1")

// Store is the encrypted, reservation-gated key-value store. One Store
// owns one bbolt file; it is safe for concurrent use by many goroutines.
type Store struct {
	db  *bbolt.DB
	key []byte // derived symmetric key, held for the store's lifetime
}

// Open opens (creating if necessary) the store at path, deriving its
// symmetric key from password. A fresh store writes a salt and a sentinel
// record; an existing store verifies the password against that sentinel
// and returns kverrors.ErrWrongPassword on mismatch.
func Open(path, password string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("kv: opening store: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(password); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(password string) error {
	var salt []byte
	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketValues)); err != nil {
			return err
		}
		if existing := meta.Get([]byte(metaSalt)); existing != nil {
			salt = append([]byte(nil), existing...)
			return nil
		}
		salt = make([]byte, saltSize)
		if _, err := cryptorand.Read(salt); err != nil {
			return err
		}
		return meta.Put([]byte(metaSalt), salt)
	})
	if err != nil {
		return fmt.Errorf("kv: initializing store: %w", err)
	}

	s.key = deriveKey(password, salt)
	memZero(salt)

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		sealedSentinel := meta.Get([]byte(metaSentinel))
		if sealedSentinel == nil {
			sealed, err := seal(s.key, sentinelPlaintext)
			if err != nil {
				return fmt.Errorf("kv: sealing sentinel: %w", err)
			}
			return meta.Put([]byte(metaSentinel), sealed)
		}
		plain, err := open(s.key, sealedSentinel)
		if err != nil || !bytes.Equal(plain, sentinelPlaintext) {
			return kverrors.ErrWrongPassword
		}
		return nil
	})
}

func (s *Store) Close() error {
	memZero(s.key)
	return s.db.Close()
}

// Exists reports whether a committed value (not a bare reservation) is
// present for key.
func (s *Store) Exists(key []byte) (bool, error) {
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketValues)).Get(key)
		found = len(v) > 0 && v[0] == tagValue
		return nil
	})
	return found, err
}

// Reserve performs a compare-and-set: if key is entirely absent it installs
// a reservation marker and returns a token that Put will later consume. If
// key already holds a marker or a value, Reserve fails with
// kverrors.ErrAlreadyExists. bbolt serialises all writers through a single
// read-write transaction, so this check-then-set is atomic across callers.
func (s *Store) Reserve(key []byte) (*Reservation, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketValues))
		if b.Get(key) != nil {
			return kverrors.ErrAlreadyExists
		}
		return b.Put(key, []byte{tagReserved})
	})
	if err != nil {
		return nil, err
	}
	return &Reservation{key: append([]byte(nil), key...)}, nil
}

// Put seals value and installs it under the key claimed by r. r may be
// used exactly once; a second Put with the same reservation fails. If
// sealing or the transaction fails, the reservation marker is cleared so
// the key is free for a future Reserve.
func (s *Store) Put(r *Reservation, value []byte) error {
	if r.used {
		return kverrors.ErrNoReservation
	}
	r.used = true

	sealed, err := seal(s.key, value)
	if err != nil {
		s.release(r.key)
		return fmt.Errorf("%w: %v", kverrors.ErrSerialization, err)
	}

	envelope := make([]byte, 0, 1+len(sealed))
	envelope = append(envelope, tagValue)
	envelope = append(envelope, sealed...)

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketValues))
		cur := b.Get(r.key)
		if len(cur) == 0 || cur[0] != tagReserved {
			return kverrors.ErrNoReservation
		}
		return b.Put(r.key, envelope)
	})
	if err != nil {
		s.release(r.key)
		return err
	}
	return nil
}

// Release discards an unused reservation, freeing the key immediately
// instead of waiting for Put to fail. Safe to call on an already-used or
// already-released reservation.
func (s *Store) Release(r *Reservation) {
	if r.used {
		return
	}
	r.used = true
	s.release(r.key)
}

func (s *Store) release(key []byte) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketValues))
		if cur := b.Get(key); len(cur) > 0 && cur[0] == tagReserved {
			return b.Delete(key)
		}
		return nil
	})
}

// Get fetches and decrypts the value stored under key.
func (s *Store) Get(key []byte) ([]byte, error) {
	var envelope []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketValues)).Get(key)
		if v == nil {
			return kverrors.ErrNotFound
		}
		envelope = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if envelope[0] != tagValue {
		// a bare reservation is not a committed value
		return nil, kverrors.ErrNotFound
	}
	plain, err := open(s.key, envelope[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kverrors.ErrDeserializaton, err)
	}
	return plain, nil
}

// Remove deletes key unconditionally, value or reservation.
func (s *Store) Remove(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketValues)).Delete(key)
	})
}
