package gg20

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/binance-chain/tss-lib/tss"
)

// roster maps the ceremony's physical parties onto tss-lib's flat party
// list. GG20 (tss-lib) parametrizes over one vote per PartyID; a
// physical party that owns more than one share (the daemon's
// party_share_counts) is modelled as several virtual PartyIDs, one per
// share, named "<uid>#<shareIndex>". Every party computes this roster
// independently from the same KeygenInit, so it never needs to travel
// on the wire.
type roster struct {
	sorted     tss.SortedPartyIDs
	byPhysical map[string][]*tss.PartyID
}

func buildRoster(partyUIDs []string, shareCounts []uint32) (*roster, error) {
	if len(partyUIDs) != len(shareCounts) {
		return nil, fmt.Errorf("gg20: party_uids (%d) / party_share_counts (%d) length mismatch", len(partyUIDs), len(shareCounts))
	}
	var unsorted tss.UnSortedPartyIDs
	byPhysical := make(map[string][]*tss.PartyID, len(partyUIDs))
	for i, uid := range partyUIDs {
		shares := make([]*tss.PartyID, 0, shareCounts[i])
		for s := uint32(0); s < shareCounts[i]; s++ {
			moniker := fmt.Sprintf("%s#%d", uid, s)
			id := tss.NewPartyID(moniker, moniker, virtualKey(moniker))
			unsorted = append(unsorted, id)
			shares = append(shares, id)
		}
		byPhysical[uid] = shares
	}
	return &roster{
		sorted:     tss.SortPartyIDs(unsorted),
		byPhysical: byPhysical,
	}, nil
}

// virtualKey derives a stable, collision-resistant big.Int identity for
// a virtual party from its moniker, so every party computes the same
// PartyID.Key independently without needing a coordination round.
func virtualKey(moniker string) *big.Int {
	h := sha256.Sum256([]byte(moniker))
	return new(big.Int).SetBytes(h[:])
}

func (r *roster) mine(physicalUID string) []*tss.PartyID {
	return r.byPhysical[physicalUID]
}

func (r *roster) total() int {
	return len(r.sorted)
}

// physicalOf extracts the physical UID a virtual PartyID belongs to; the
// inverse of buildRoster's "<uid>#<shareIndex>" naming.
func physicalOf(id *tss.PartyID) string {
	m := id.Moniker
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] == '#' {
			return m[:i]
		}
	}
	return m
}
