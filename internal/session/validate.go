package session

import (
	"github.com/shardkeep/partyd/proto"
)

// ValidateKeygenInit applies the validation rules a KeygenInit must
// satisfy, used both by a fresh keygen and by recovery's KeygenInit
// sanitisation step.
func ValidateKeygenInit(init *proto.KeygenInit) error {
	if init == nil {
		return abortf(ReasonInvalidArgument, "missing keygen_init")
	}
	if init.NewKeyUID == "" {
		return abortf(ReasonInvalidArgument, "new_key_uid must not be empty")
	}
	if len(init.PartyUIDs) == 0 {
		return abortf(ReasonInvalidArgument, "party_uids must not be empty")
	}
	if int(init.MyPartyIndex) >= len(init.PartyUIDs) {
		return abortf(ReasonInvalidArgument, "my_party_index %d out of range (%d parties)", init.MyPartyIndex, len(init.PartyUIDs))
	}
	if len(init.PartyShareCounts) != len(init.PartyUIDs) {
		return abortf(ReasonInvalidArgument, "party_share_counts (%d) must align with party_uids (%d)", len(init.PartyShareCounts), len(init.PartyUIDs))
	}
	seen := make(map[string]bool, len(init.PartyUIDs))
	var total uint32
	for i, uid := range init.PartyUIDs {
		if uid == "" {
			return abortf(ReasonInvalidArgument, "party_uids[%d] is empty", i)
		}
		if seen[uid] {
			return abortf(ReasonInvalidArgument, "duplicate party uid %q", uid)
		}
		seen[uid] = true
		if init.PartyShareCounts[i] == 0 {
			return abortf(ReasonInvalidArgument, "party_share_counts[%d] must be > 0", i)
		}
		total += init.PartyShareCounts[i]
	}
	if init.Threshold+1 > total {
		return abortf(ReasonInvalidArgument, "threshold %d requires more than %d total shares", init.Threshold, total)
	}
	return nil
}

// ValidateSignInit applies the same kind of validation to a SignInit.
func ValidateSignInit(init *proto.SignInit) error {
	if init == nil {
		return abortf(ReasonInvalidArgument, "missing sign_init")
	}
	if init.NewSigUID == "" {
		return abortf(ReasonInvalidArgument, "new_sig_uid must not be empty")
	}
	if init.KeyUID == "" {
		return abortf(ReasonInvalidArgument, "key_uid must not be empty")
	}
	if len(init.PartyUIDs) == 0 {
		return abortf(ReasonInvalidArgument, "party_uids must not be empty")
	}
	if len(init.MessageToSign) != 32 {
		return abortf(ReasonInvalidArgument, "message_to_sign must be exactly 32 bytes, got %d", len(init.MessageToSign))
	}
	seen := make(map[string]bool, len(init.PartyUIDs))
	for i, uid := range init.PartyUIDs {
		if uid == "" {
			return abortf(ReasonInvalidArgument, "party_uids[%d] is empty", i)
		}
		if seen[uid] {
			return abortf(ReasonInvalidArgument, "duplicate signer uid %q", uid)
		}
		seen[uid] = true
	}
	return nil
}

// subsetInOriginalOrder checks that signers is a subset of keygenUIDs and
// preserves keygenUIDs' relative order.
func subsetInOriginalOrder(signers, keygenUIDs []string) bool {
	pos := make(map[string]int, len(keygenUIDs))
	for i, uid := range keygenUIDs {
		pos[uid] = i
	}
	last := -1
	for _, s := range signers {
		p, ok := pos[s]
		if !ok || p <= last {
			return false
		}
		last = p
	}
	return true
}
