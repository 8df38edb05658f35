// Package kvmanager is the façade that composes the
// encrypted store (C1), the mnemonic lifecycle (C3) and the PartyInfo
// codec into the interface the session and recovery flows use.
package kvmanager

import (
	"fmt"

	"github.com/shardkeep/partyd/internal/kv"
	"github.com/shardkeep/partyd/internal/kverrors"
	"github.com/shardkeep/partyd/internal/mnemonic"
	"github.com/shardkeep/partyd/internal/partyinfo"
)

// Reservation is a kv manager handle wrapping the underlying store's
// reservation; callers outside this package cannot construct one.
type Reservation struct {
	inner *kv.Reservation
}

// Manager composes one physical kv.Store into the share-store and the
// seed-store namespaces this daemon needs. They are the same bbolt
// file; "namespace" here just means "the reserved mnemonic key versus
// everything else".
type Manager struct {
	store *kv.Store
}

func New(store *kv.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Exists reports whether a committed PartyInfo is present for keyUID.
func (m *Manager) Exists(keyUID string) (bool, error) {
	return m.store.Exists([]byte(keyUID))
}

// Reserve atomically claims keyUID for writing.
func (m *Manager) Reserve(keyUID string) (*Reservation, error) {
	r, err := m.store.Reserve([]byte(keyUID))
	if err != nil {
		return nil, err
	}
	return &Reservation{inner: r}, nil
}

// Release discards a reservation without writing, e.g. on a faulted or
// aborted session.
func (m *Manager) Release(r *Reservation) {
	m.store.Release(r.inner)
}

// Put encodes and commits info under the key claimed by r.
func (m *Manager) Put(r *Reservation, info *partyinfo.PartyInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("kvmanager: refusing to persist invalid party info: %w", err)
	}
	encoded, err := partyinfo.Encode(info)
	if err != nil {
		return fmt.Errorf("%w: %v", kverrors.ErrSerialization, err)
	}
	return m.store.Put(r.inner, encoded)
}

// Get loads and decodes the PartyInfo for keyUID.
func (m *Manager) Get(keyUID string) (*partyinfo.PartyInfo, error) {
	raw, err := m.store.Get([]byte(keyUID))
	if err != nil {
		return nil, err
	}
	return partyinfo.Decode(raw)
}

// Remove deletes the PartyInfo for keyUID unconditionally. Used to
// simulate local key loss ahead of a Recover RPC, and by tests.
func (m *Manager) Remove(keyUID string) error {
	return m.store.Remove([]byte(keyUID))
}

// Seed returns the SecretRecoveryKey derived from the mnemonic. Callers
// must Zero() it as soon as they are done.
func (m *Manager) Seed() (mnemonic.SecretRecoveryKey, error) {
	return mnemonic.Seed(m.store)
}
