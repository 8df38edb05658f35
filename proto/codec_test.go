package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGobCodecRoundTrip(t *testing.T) {
	want := &MessageIn{
		Traffic: &TrafficIn{
			Payload:      []byte{1, 2, 3},
			FromPartyUID: "alice",
			IsBroadcast:  true,
		},
	}

	data, err := Codec.Marshal(want)
	require.NoError(t, err)

	got := new(MessageIn)
	require.NoError(t, Codec.Unmarshal(data, got))
	assert.Equal(t, want, got)
}

func TestGobCodecName(t *testing.T) {
	assert.Equal(t, "gob", Codec.Name())
}
