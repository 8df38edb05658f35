package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkeep/partyd/internal/kverrors"
)

func openTemp(t *testing.T, password string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"), password)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTemp(t, "correct horse battery staple")

	r, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)
	require.NoError(t, s.Put(r, []byte("hello")))

	got, err := s.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReserveTwiceFails(t *testing.T) {
	s := openTemp(t, "pw")

	_, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)

	_, err = s.Reserve([]byte("k1"))
	assert.ErrorIs(t, err, kverrors.ErrAlreadyExists)
}

func TestReserveAfterCommittedValueFails(t *testing.T) {
	s := openTemp(t, "pw")
	r, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)
	require.NoError(t, s.Put(r, []byte("v")))

	_, err = s.Reserve([]byte("k1"))
	assert.ErrorIs(t, err, kverrors.ErrAlreadyExists)
}

func TestPutTwiceWithSameReservationFails(t *testing.T) {
	s := openTemp(t, "pw")
	r, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)
	require.NoError(t, s.Put(r, []byte("v1")))

	err = s.Put(r, []byte("v2"))
	assert.ErrorIs(t, err, kverrors.ErrNoReservation)
}

func TestReleaseFreesKeyForReservation(t *testing.T) {
	s := openTemp(t, "pw")
	r, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)
	s.Release(r)

	_, err = s.Reserve([]byte("k1"))
	assert.NoError(t, err)
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	s := openTemp(t, "pw")
	_, err := s.Get([]byte("missing"))
	assert.ErrorIs(t, err, kverrors.ErrNotFound)
}

func TestBareReservationIsNotGettable(t *testing.T) {
	s := openTemp(t, "pw")
	_, err := s.Reserve([]byte("k1"))
	require.NoError(t, err)

	_, err = s.Get([]byte("k1"))
	assert.ErrorIs(t, err, kverrors.ErrNotFound)
}

func TestWrongPasswordRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(path, "right password")
	require.NoError(t, err)
	s.Close()

	_, err = Open(path, "wrong password")
	assert.ErrorIs(t, err, kverrors.ErrWrongPassword)
}

func TestReopenWithSamePasswordSeesPriorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s1, err := Open(path, "pw")
	require.NoError(t, err)
	r, err := s1.Reserve([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, s1.Put(r, []byte("persisted")))
	require.NoError(t, s1.Close())

	s2, err := Open(path, "pw")
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}
