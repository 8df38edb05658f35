package partyinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInfo() *PartyInfo {
	return &PartyInfo{
		SecretKeyShares:  [][]byte{[]byte("share-a"), []byte("share-b")},
		PartyUIDs:        []string{"alice", "bob", "carol"},
		PartyShareCounts: []uint32{2, 1, 1},
		MyIndex:          0,
		Threshold:        2,
		PubKey:           []byte{0x04, 0x01, 0x02},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := validInfo()
	encoded, err := Encode(want)
	require.NoError(t, err)

	got, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidateRejectsMyIndexOutOfRange(t *testing.T) {
	p := validInfo()
	p.MyIndex = 5
	assert.Error(t, p.Validate())
}

func TestValidateRejectsShareCountMismatch(t *testing.T) {
	p := validInfo()
	p.PartyShareCounts = []uint32{1, 1, 1}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsThresholdEqualToTotalShares(t *testing.T) {
	p := validInfo()
	p.Threshold = 4
	assert.Error(t, p.Validate())
}

func TestValidateRejectsZeroShareCount(t *testing.T) {
	p := validInfo()
	p.PartyShareCounts = []uint32{2, 0, 1}
	assert.Error(t, p.Validate())
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	encoded, err := Encode(validInfo())
	require.NoError(t, err)

	_, err = Decode(encoded[:len(encoded)-1])
	assert.Error(t, err)
}

func TestDecodeRejectsOversizedLengthPrefix(t *testing.T) {
	// a length prefix claiming far more data than actually follows it
	// must not panic or over-allocate.
	corrupt := []byte{0x7f, 0xff, 0xff, 0xff, 0x00, 0x00}
	_, err := Decode(corrupt)
	assert.Error(t, err)
}
