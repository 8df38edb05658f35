// Package recovery implements the Recover RPC: rebuilding
// a party's local PartyInfo record from ciphertext the client has been
// holding since keygen, without a live multi-party ceremony. Grounded on
// original_source/src/gg20/recover.rs.
package recovery

import (
	"fmt"

	"github.com/shardkeep/partyd/internal/gg20"
	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/internal/partyinfo"
	"github.com/shardkeep/partyd/internal/session"
	"github.com/shardkeep/partyd/proto"
)

// Recover implements the Gg20Server.Recover RPC. A request for a key_uid
// that already exists is idempotent: it succeeds immediately without
// touching the store, matching the original's "abort quietly" behaviour
// for a recovery that arrived twice.
func Recover(req *proto.RecoverRequest, kvm *kvmanager.Manager) (*proto.RecoverResponse, error) {
	if req.KeygenInit == nil {
		return nil, fmt.Errorf("recovery: missing keygen_init")
	}
	if req.KeygenOutput == nil {
		return nil, fmt.Errorf("recovery: missing keygen_output")
	}
	init := req.KeygenInit
	if err := session.ValidateKeygenInit(init); err != nil {
		return &proto.RecoverResponse{Response: proto.RecoverFail}, nil
	}

	exists, err := kvm.Exists(init.NewKeyUID)
	if err != nil {
		return nil, fmt.Errorf("recovery: checking %q: %w", init.NewKeyUID, err)
	}
	if exists {
		return &proto.RecoverResponse{Response: proto.RecoverSuccess}, nil
	}

	myShareCount := int(init.PartyShareCounts[init.MyPartyIndex])
	if myShareCount == 0 {
		return &proto.RecoverResponse{Response: proto.RecoverFail}, nil
	}

	seed, err := kvm.Seed()
	if err != nil {
		return nil, fmt.Errorf("recovery: deriving seed: %w", err)
	}
	defer seed.Zero()

	shares, err := gg20.OpenPrivateRecoverInfo(seed, init.NewKeyUID, req.KeygenOutput.PrivateRecoverInfo)
	if err != nil {
		return &proto.RecoverResponse{Response: proto.RecoverFail}, nil
	}
	if len(shares) != myShareCount {
		return &proto.RecoverResponse{Response: proto.RecoverFail}, nil
	}

	reservation, err := kvm.Reserve(init.NewKeyUID)
	if err != nil {
		return nil, fmt.Errorf("recovery: reserving %q: %w", init.NewKeyUID, err)
	}
	committed := false
	defer func() {
		if !committed {
			kvm.Release(reservation)
		}
	}()

	info := &partyinfo.PartyInfo{
		SecretKeyShares:  shares,
		PartyUIDs:        init.PartyUIDs,
		PartyShareCounts: init.PartyShareCounts,
		MyIndex:          init.MyPartyIndex,
		Threshold:        init.Threshold,
		PubKey:           req.KeygenOutput.PubKey,
	}
	if err := kvm.Put(reservation, info); err != nil {
		return nil, fmt.Errorf("recovery: persisting party info: %w", err)
	}
	committed = true

	return &proto.RecoverResponse{Response: proto.RecoverSuccess}, nil
}
