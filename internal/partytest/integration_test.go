package partytest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeygenThenSign drives a full 2-of-3 keygen followed by a signing
// ceremony among the threshold's worth of signers, entirely in-process.
// It is the closest in-repo analogue to original_source's end-to-end
// party tests, minus the real network hop.
func TestKeygenThenSign(t *testing.T) {
	if testing.Short() {
		t.Skip("full GG20 ceremonies are expensive; skipped under -short")
	}

	uids := []string{"alice", "bob", "carol"}
	parties, err := NewParties(uids)
	require.NoError(t, err)
	defer Close(parties)

	shareCounts := []uint32{1, 1, 1}
	const threshold = 1 // any 2 of 3 shares can sign
	const keyUID = "key-1"

	keygenOutcomes := RunKeygen(parties, shareCounts, threshold, keyUID, false)
	for _, o := range keygenOutcomes {
		require.NoError(t, o.Err, "party %s", o.UID)
		require.NotNil(t, o.Result, "party %s produced no result", o.UID)
		require.NotNil(t, o.Result.KeygenResult, "party %s", o.UID)
		assert.Nil(t, o.Result.KeygenResult.Criminals, "party %s reported criminals", o.UID)
		require.NotNil(t, o.Result.KeygenResult.Data, "party %s", o.UID)
		assert.NotEmpty(t, o.Result.KeygenResult.Data.PubKey)
	}

	var message [32]byte
	copy(message[:], []byte("thirty-two-byte test message!!!"))

	signOutcomes := RunSign(parties, []string{"alice", "bob"}, keyUID, message)
	for _, o := range signOutcomes {
		require.NoError(t, o.Err, "party %s", o.UID)
		require.NotNil(t, o.Result, "party %s produced no result", o.UID)
		require.NotNil(t, o.Result.SignResult, "party %s", o.UID)
		assert.Nil(t, o.Result.SignResult.Criminals, "party %s reported criminals", o.UID)
		assert.NotEmpty(t, o.Result.SignResult.Signature)
	}
}

// TestSignAgainstAbsentKeyAsksForRecovery exercises the NeedRecover path:
// a party that was never part of (or lost) a keygen should be told to
// recover before signing instead of being aborted outright.
func TestSignAgainstAbsentKeyAsksForRecovery(t *testing.T) {
	parties, err := NewParties([]string{"alice"})
	require.NoError(t, err)
	defer Close(parties)

	var message [32]byte
	outcomes := RunSign(parties, []string{"alice"}, "never-created", message)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.NotNil(t, outcomes[0].Result)
	assert.Equal(t, "never-created", outcomes[0].Result.NeedRecoverSessionID)
}
