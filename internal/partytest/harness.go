package partytest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shardkeep/partyd/internal/kv"
	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/internal/mnemonic"
	"github.com/shardkeep/partyd/internal/session"
	"github.com/shardkeep/partyd/proto"
)

const inboxSize = 4096

// Party is one harness-managed participant: its own encrypted store, in
// a scratch directory cleaned up by the caller.
type Party struct {
	UID string
	Kvm *kvmanager.Manager
	dir string
}

// NewParties builds len(uids) parties, each with a freshly created
// mnemonic in its own temporary store. Callers should defer Close().
func NewParties(uids []string) ([]*Party, error) {
	parties := make([]*Party, len(uids))
	for i, uid := range uids {
		dir, err := os.MkdirTemp("", "partytest-*")
		if err != nil {
			return nil, err
		}
		store, err := kv.Open(filepath.Join(dir, "store.db"), "partytest-password")
		if err != nil {
			return nil, err
		}
		if err := mnemonic.Run(mnemonic.Create, store, dir); err != nil {
			return nil, fmt.Errorf("partytest: creating mnemonic for %s: %w", uid, err)
		}
		parties[i] = &Party{UID: uid, Kvm: kvmanager.New(store), dir: dir}
	}
	return parties, nil
}

func Close(parties []*Party) {
	for _, p := range parties {
		p.Kvm.Close()
		os.RemoveAll(p.dir)
	}
}

// Outcome is one party's terminal MessageOut from a ceremony, or the
// error its session returned instead (never both).
type Outcome struct {
	UID    string
	Result *proto.MessageOut
	Err    error
}

// RunKeygen drives a full keygen ceremony across parties in-process,
// routing each party's outgoing traffic to the peers it names (or to
// everyone else, for a broadcast) over buffered channels instead of a
// real network connection.
func RunKeygen(parties []*Party, shareCounts []uint32, threshold uint32, keyUID string, safePrimes bool) []Outcome {
	uids := make([]string, len(parties))
	for i, p := range parties {
		uids[i] = p.UID
	}

	inCh, outCh := makeChannels(len(parties))
	for i := range parties {
		inCh[i] <- &proto.MessageIn{KeygenInit: &proto.KeygenInit{
			NewKeyUID:        keyUID,
			PartyUIDs:        uids,
			PartyShareCounts: shareCounts,
			MyPartyIndex:     uint32(i),
			Threshold:        threshold,
		}}
	}

	runErrs := runSessions(parties, inCh, outCh, func(stream *memStream, p *Party) error {
		return session.RunKeygen(stream, p.Kvm, safePrimes)
	})
	return collect(uids, inCh, outCh, runErrs)
}

// RunSign mirrors RunKeygen for the Sign RPC; signerUIDs must already be
// an ordered subset of each party's stored PartyInfo.PartyUIDs.
func RunSign(parties []*Party, signerUIDs []string, keyUID string, message [32]byte) []Outcome {
	byUID := make(map[string]*Party, len(parties))
	for _, p := range parties {
		byUID[p.UID] = p
	}
	signers := make([]*Party, len(signerUIDs))
	for i, uid := range signerUIDs {
		signers[i] = byUID[uid]
	}

	inCh, outCh := makeChannels(len(signers))
	for i := range signers {
		inCh[i] <- &proto.MessageIn{SignInit: &proto.SignInit{
			NewSigUID:     keyUID + "-sig",
			KeyUID:        keyUID,
			PartyUIDs:     signerUIDs,
			MessageToSign: message[:],
		}}
	}

	runErrs := runSessions(signers, inCh, outCh, func(stream *memStream, p *Party) error {
		return session.RunSign(stream, p.Kvm)
	})
	return collect(signerUIDs, inCh, outCh, runErrs)
}

func makeChannels(n int) ([]chan *proto.MessageIn, []chan *proto.MessageOut) {
	inCh := make([]chan *proto.MessageIn, n)
	outCh := make([]chan *proto.MessageOut, n)
	for i := 0; i < n; i++ {
		inCh[i] = make(chan *proto.MessageIn, inboxSize)
		outCh[i] = make(chan *proto.MessageOut, inboxSize)
	}
	return inCh, outCh
}

// runSessions starts one session goroutine per party and returns a slice
// of per-party error channels, each closed (after one send, if the
// session errored) once that party's session returns.
func runSessions(parties []*Party, inCh []chan *proto.MessageIn, outCh []chan *proto.MessageOut, run func(*memStream, *Party) error) []chan error {
	done := make([]chan error, len(parties))
	for i, p := range parties {
		done[i] = make(chan error, 1)
		go func(i int, p *Party) {
			defer close(done[i])
			stream := newMemStream(inCh[i], outCh[i])
			if err := run(stream, p); err != nil {
				done[i] <- err
			}
		}(i, p)
	}
	return done
}

// collect routes TrafficOut between parties until each party's session
// has either produced a terminal result or returned (with or without an
// error), then assembles the final Outcome for every party.
func collect(uids []string, inCh []chan *proto.MessageIn, outCh []chan *proto.MessageOut, done []chan error) []Outcome {
	index := make(map[string]int, len(uids))
	for i, uid := range uids {
		index[uid] = i
	}

	outcomes := make([]Outcome, len(uids))
	var wg sync.WaitGroup
	wg.Add(len(uids))
	for i := range uids {
		go func(i int) {
			defer wg.Done()
			for {
				select {
				case msg := <-outCh[i]:
					if msg.Traffic != nil {
						relay(uids, i, index, msg.Traffic, inCh)
						continue
					}
					outcomes[i].Result = msg
				case err, ok := <-done[i]:
					if ok {
						outcomes[i].Err = err
					}
					// frames the session sent before returning may still
					// be buffered; route or record them before finishing.
					for {
						select {
						case msg := <-outCh[i]:
							if msg.Traffic != nil {
								relay(uids, i, index, msg.Traffic, inCh)
								continue
							}
							outcomes[i].Result = msg
						default:
							return
						}
					}
				}
			}
		}(i)
	}
	wg.Wait()
	for i, uid := range uids {
		outcomes[i].UID = uid
	}
	return outcomes
}

func relay(uids []string, from int, index map[string]int, t *proto.TrafficOut, inCh []chan *proto.MessageIn) {
	frame := &proto.MessageIn{Traffic: &proto.TrafficIn{
		Payload:      t.Payload,
		FromPartyUID: uids[from],
		IsBroadcast:  t.IsBroadcast,
	}}
	if t.IsBroadcast || t.ToPartyUID == "" {
		for j := range uids {
			if j == from {
				continue
			}
			inCh[j] <- frame
		}
		return
	}
	if j, ok := index[t.ToPartyUID]; ok {
		inCh[j] <- frame
	}
}
