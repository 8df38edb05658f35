package gg20

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRosterExpandsSharesPerParty(t *testing.T) {
	r, err := buildRoster([]string{"alice", "bob"}, []uint32{2, 1})
	require.NoError(t, err)

	assert.Equal(t, 3, r.total())
	assert.Len(t, r.mine("alice"), 2)
	assert.Len(t, r.mine("bob"), 1)
	assert.Empty(t, r.mine("carol"))
}

func TestBuildRosterRejectsLengthMismatch(t *testing.T) {
	_, err := buildRoster([]string{"alice", "bob"}, []uint32{1})
	assert.Error(t, err)
}

func TestVirtualKeyIsDeterministic(t *testing.T) {
	a := virtualKey("alice#0")
	b := virtualKey("alice#0")
	assert.Equal(t, 0, a.Cmp(b))

	c := virtualKey("alice#1")
	assert.NotEqual(t, 0, a.Cmp(c))
}

func TestPhysicalOfRecoversUID(t *testing.T) {
	r, err := buildRoster([]string{"alice"}, []uint32{3})
	require.NoError(t, err)

	for _, id := range r.mine("alice") {
		assert.Equal(t, "alice", physicalOf(id))
	}
}
