package session

import (
	"bytes"
	"encoding/gob"

	"github.com/shardkeep/partyd/internal/gg20"
	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/internal/partyinfo"
	"github.com/shardkeep/partyd/proto"
)

// RunKeygen drives one Keygen RPC end to end: AwaitInit, then Running,
// then Succeeded/Faulted/Aborted. The key_uid is reserved
// before any ceremony traffic is exchanged, so a concurrent duplicate
// keygen for the same uid is rejected before either party wastes a round
// on it, and a crash mid-ceremony leaves a reservation rather than a
// half-written record.
func RunKeygen(stream proto.Gg20_KeygenServer, kvm *kvmanager.Manager, safePrimes bool) error {
	first, err := stream.Recv()
	if err != nil {
		return ToStatus(abortf(ReasonUnavailable, "session: awaiting keygen_init: %v", err))
	}
	if first.KeygenInit == nil {
		return ToStatus(abortf(ReasonInvalidArgument, "session: first message must be keygen_init"))
	}
	init := first.KeygenInit
	if err := ValidateKeygenInit(init); err != nil {
		return ToStatus(err)
	}

	reservation, err := kvm.Reserve(init.NewKeyUID)
	if err != nil {
		return ToStatus(abortf(ReasonInvalidArgument, "session: reserving %q: %v", init.NewKeyUID, err))
	}
	committed := false
	defer func() {
		if !committed {
			kvm.Release(reservation)
		}
	}()

	gi := gg20.KeygenInit{
		NewKeyUID:        init.NewKeyUID,
		PartyUIDs:        init.PartyUIDs,
		PartyShareCounts: init.PartyShareCounts,
		MyIndex:          int(init.MyPartyIndex),
		Threshold:        int(init.Threshold),
	}
	handle, err := gg20.NewKeygenHandle(gi, safePrimes)
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: starting keygen: %v", err))
	}
	if err := handle.Start(); err != nil {
		return ToStatus(abortf(ReasonInternal, "session: starting keygen: %v", err))
	}

	result, err := runCeremony(stream, handle, totalShares(init.PartyShareCounts))
	if err != nil {
		return ToStatus(err)
	}

	if result.Criminals != nil {
		return stream.Send(&proto.MessageOut{
			KeygenResult: &proto.KeygenResult{Criminals: toProtoCriminals(result.Criminals)},
		})
	}
	if result.Err != nil {
		return ToStatus(abortf(ReasonInternal, "session: keygen ceremony failed: %v", result.Err))
	}
	if result.Keygen == nil {
		return ToStatus(abortf(ReasonInternal, "session: keygen ceremony produced no result"))
	}

	info := &partyinfo.PartyInfo{
		SecretKeyShares:  result.Keygen.Shares,
		PartyUIDs:        init.PartyUIDs,
		PartyShareCounts: init.PartyShareCounts,
		MyIndex:          init.MyPartyIndex,
		Threshold:        init.Threshold,
		PubKey:           result.Keygen.PubKey,
	}
	if err := kvm.Put(reservation, info); err != nil {
		return ToStatus(abortf(ReasonInternal, "session: persisting party info: %v", err))
	}
	committed = true

	seed, err := kvm.Seed()
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: deriving recovery seed: %v", err))
	}
	defer seed.Zero()
	privateRecoverInfo, err := gg20.SealPrivateRecoverInfo(seed, init.NewKeyUID, result.Keygen.Shares)
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: sealing recovery info: %v", err))
	}

	return stream.Send(&proto.MessageOut{
		KeygenResult: &proto.KeygenResult{Data: &proto.KeygenOutput{
			PubKey:             result.Keygen.PubKey,
			PrivateKeyInfo:     encodeShares(result.Keygen.Shares),
			PrivateRecoverInfo: privateRecoverInfo,
		}},
	})
}

func totalShares(counts []uint32) int {
	var total uint32
	for _, c := range counts {
		total += c
	}
	return int(total)
}

// encodeShares wraps the per-share opaque blobs as a single KeygenOutput
// field; gg20.KeygenArtifact.Shares are already gob-encoded individually,
// so this just frames them as one value a client can round-trip whole.
func encodeShares(shares [][]byte) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(shares); err != nil {
		return nil
	}
	return buf.Bytes()
}
