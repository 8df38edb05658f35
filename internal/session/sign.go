package session

import (
	"log"

	"github.com/google/uuid"

	"github.com/shardkeep/partyd/internal/gg20"
	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/proto"
)

// RunSign drives one Sign RPC. Unlike keygen, signing touches no
// reservation: the kv record it reads was already committed by the
// keygen (or recovery) that produced key_uid, and signing never writes
// to the store.
//
// If key_uid is not present, the session does not abort: it reports
// NeedRecoverSessionID so the client knows to run Recover and retry,
// so the client knows to recover instead of failing the whole ceremony.
func RunSign(stream proto.Gg20_SignServer, kvm *kvmanager.Manager) error {
	first, err := stream.Recv()
	if err != nil {
		return ToStatus(abortf(ReasonUnavailable, "session: awaiting sign_init: %v", err))
	}
	if first.SignInit == nil {
		return ToStatus(abortf(ReasonInvalidArgument, "session: first message must be sign_init"))
	}
	init := first.SignInit
	if err := ValidateSignInit(init); err != nil {
		return ToStatus(err)
	}

	present, err := kvm.Exists(init.KeyUID)
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: checking %q: %v", init.KeyUID, err))
	}
	if !present {
		log.Printf("[sign] %s: key_uid %q absent, asking client to recover", uuid.NewString(), init.KeyUID)
		return stream.Send(&proto.MessageOut{NeedRecoverSessionID: init.KeyUID})
	}

	info, err := kvm.Get(init.KeyUID)
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: loading %q: %v", init.KeyUID, err))
	}
	if !subsetInOriginalOrder(init.PartyUIDs, info.PartyUIDs) {
		return ToStatus(abortf(ReasonInvalidArgument, "session: signers are not an ordered subset of the keygen roster"))
	}

	myUID := info.PartyUIDs[info.MyIndex]
	myIndex := -1
	for i, uid := range init.PartyUIDs {
		if uid == myUID {
			myIndex = i
			break
		}
	}
	if myIndex < 0 {
		return ToStatus(abortf(ReasonInvalidArgument, "session: this party (%q) is not among the requested signers", myUID))
	}

	var msg [32]byte
	copy(msg[:], init.MessageToSign)

	gi := gg20.SignInit{
		KeyUID:        init.KeyUID,
		PartyUIDs:     init.PartyUIDs,
		MyIndex:       myIndex,
		MessageToSign: msg,
	}
	handle, err := gg20.NewSignHandle(gi, info.PartyUIDs, info.PartyShareCounts, info.SecretKeyShares, msg)
	if err != nil {
		return ToStatus(abortf(ReasonInternal, "session: starting sign: %v", err))
	}
	if err := handle.Start(); err != nil {
		return ToStatus(abortf(ReasonInternal, "session: starting sign: %v", err))
	}

	result, err := runCeremony(stream, handle, len(init.PartyUIDs))
	if err != nil {
		return ToStatus(err)
	}

	if result.Criminals != nil {
		return stream.Send(&proto.MessageOut{
			SignResult: &proto.SignResult{Criminals: toProtoCriminals(result.Criminals)},
		})
	}
	if result.Err != nil {
		return ToStatus(abortf(ReasonInternal, "session: sign ceremony failed: %v", result.Err))
	}
	if result.Sign == nil {
		return ToStatus(abortf(ReasonInternal, "session: sign ceremony produced no result"))
	}

	return stream.Send(&proto.MessageOut{
		SignResult: &proto.SignResult{Signature: result.Sign.Signature},
	})
}
