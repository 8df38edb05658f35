package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkeep/partyd/internal/partytest"
	"github.com/shardkeep/partyd/proto"
)

func TestRecoverRestoresLostShare(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises a real GG20 keygen; skipped under -short")
	}

	uids := []string{"alice", "bob"}
	parties, err := partytest.NewParties(uids)
	require.NoError(t, err)
	defer partytest.Close(parties)

	shareCounts := []uint32{1, 1}
	const keyUID = "key-1"
	outcomes := partytest.RunKeygen(parties, shareCounts, 1, keyUID, false)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}
	alice := parties[0]
	output := outcomes[0].Result.KeygenResult.Data
	require.NotNil(t, output)

	// simulate losing the locally persisted share; the client still has
	// the KeygenOutput it received at keygen time.
	require.NoError(t, alice.Kvm.Remove(keyUID))
	present, err := alice.Kvm.Exists(keyUID)
	require.NoError(t, err)
	require.False(t, present)

	resp, err := Recover(&proto.RecoverRequest{
		KeygenInit: &proto.KeygenInit{
			NewKeyUID:        keyUID,
			PartyUIDs:        uids,
			PartyShareCounts: shareCounts,
			MyPartyIndex:     0,
			Threshold:        1,
		},
		KeygenOutput: output,
	}, alice.Kvm)
	require.NoError(t, err)
	assert.Equal(t, proto.RecoverSuccess, resp.Response)

	present, err = alice.Kvm.Exists(keyUID)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestRecoverIsIdempotentWhenAlreadyPresent(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises a real GG20 keygen; skipped under -short")
	}

	uids := []string{"alice", "bob"}
	parties, err := partytest.NewParties(uids)
	require.NoError(t, err)
	defer partytest.Close(parties)

	shareCounts := []uint32{1, 1}
	const keyUID = "key-1"
	outcomes := partytest.RunKeygen(parties, shareCounts, 1, keyUID, false)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}
	alice := parties[0]
	output := outcomes[0].Result.KeygenResult.Data

	resp, err := Recover(&proto.RecoverRequest{
		KeygenInit: &proto.KeygenInit{
			NewKeyUID:        keyUID,
			PartyUIDs:        uids,
			PartyShareCounts: shareCounts,
			MyPartyIndex:     0,
			Threshold:        1,
		},
		KeygenOutput: output,
	}, alice.Kvm)
	require.NoError(t, err)
	assert.Equal(t, proto.RecoverSuccess, resp.Response)
}

func TestRecoverRejectsInvalidKeygenInit(t *testing.T) {
	parties, err := partytest.NewParties([]string{"alice"})
	require.NoError(t, err)
	defer partytest.Close(parties)

	resp, err := Recover(&proto.RecoverRequest{
		KeygenInit:   &proto.KeygenInit{}, // missing everything
		KeygenOutput: &proto.KeygenOutput{},
	}, parties[0].Kvm)
	require.NoError(t, err)
	assert.Equal(t, proto.RecoverFail, resp.Response)
}
