package kvmanager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkeep/partyd/internal/kv"
	"github.com/shardkeep/partyd/internal/mnemonic"
	"github.com/shardkeep/partyd/internal/partyinfo"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "store.db"), "pw")
	require.NoError(t, err)
	m := New(store)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestReserveExistsPut(t *testing.T) {
	m := newManager(t)

	ok, err := m.Exists("key-1")
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := m.Reserve("key-1")
	require.NoError(t, err)

	info := &partyinfo.PartyInfo{
		SecretKeyShares:  [][]byte{[]byte("s")},
		PartyUIDs:        []string{"a", "b"},
		PartyShareCounts: []uint32{1, 1},
		MyIndex:          0,
		Threshold:        1,
		PubKey:           []byte{1, 2, 3},
	}
	require.NoError(t, m.Put(r, info))

	ok, err = m.Exists("key-1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := m.Get("key-1")
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestPutRejectsInvalidPartyInfo(t *testing.T) {
	m := newManager(t)
	r, err := m.Reserve("key-1")
	require.NoError(t, err)

	bad := &partyinfo.PartyInfo{
		SecretKeyShares:  [][]byte{[]byte("s")},
		PartyUIDs:        []string{"a"},
		PartyShareCounts: []uint32{1},
		MyIndex:          9, // out of range
		Threshold:        0,
	}
	assert.Error(t, m.Put(r, bad))
}

func TestSeedRequiresMnemonic(t *testing.T) {
	m := newManager(t)
	_, err := m.Seed()
	assert.ErrorIs(t, err, mnemonic.ErrMissing)
}
