package gg20

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/binance-chain/tss-lib/common"
	"github.com/binance-chain/tss-lib/ecdsa/signing"
	"github.com/binance-chain/tss-lib/tss"
)

type signingHandle struct {
	roster  *roster
	mine    []*tss.PartyID
	parties []tss.Party

	tssOut chan tss.Message
	ends   []chan common.SignatureData

	out  chan Message
	done chan Result

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSignHandle builds the signing ceremony for init over the subset of
// signers it names, using shares already recovered via keygen or a prior
// recovery. allShareCounts/allUIDs are the full original keygen roster
// (from the stored PartyInfo); SignInit.PartyUIDs names the subset that
// is actually signing this message.
func NewSignHandle(init SignInit, allUIDs []string, allShareCounts []uint32, mySavedShares [][]byte, msgToSign [32]byte) (Handle, error) {
	subsetCounts, err := filterShareCounts(allUIDs, allShareCounts, init.PartyUIDs)
	if err != nil {
		return nil, err
	}
	r, err := buildRoster(init.PartyUIDs, subsetCounts)
	if err != nil {
		return nil, err
	}

	myUID := init.PartyUIDs[init.MyIndex]
	mine := r.mine(myUID)
	if len(mine) != len(mySavedShares) {
		return nil, fmt.Errorf("gg20: have %d saved shares but %d signing slots for %q", len(mySavedShares), len(mine), myUID)
	}

	ctx := tss.NewPeerContext(r.sorted)
	msgInt := new(big.Int).SetBytes(msgToSign[:])

	h := &signingHandle{
		roster: r,
		mine:   mine,
		tssOut: make(chan tss.Message, r.total()*2),
		out:    make(chan Message, r.total()*2),
		done:   make(chan Result, 1),
		stopCh: make(chan struct{}),
	}

	threshold := len(allUIDs) - 1 // recovered from party-share total below
	if t, err := thresholdFromCounts(allShareCounts); err == nil {
		threshold = t
	}

	for i, myID := range mine {
		saved, err := decodeSaveData(mySavedShares[i])
		if err != nil {
			return nil, fmt.Errorf("gg20: decoding saved share %d: %w", i, err)
		}
		params := tss.NewParameters(tss.S256(), ctx, myID, r.total(), threshold)
		end := make(chan common.SignatureData, 1)
		h.ends = append(h.ends, end)
		party := signing.NewLocalParty(msgInt, params, saved, h.tssOut, end)
		h.parties = append(h.parties, party)
	}

	return h, nil
}

func filterShareCounts(allUIDs []string, allCounts []uint32, subset []string) ([]uint32, error) {
	idx := make(map[string]uint32, len(allUIDs))
	for i, uid := range allUIDs {
		idx[uid] = allCounts[i]
	}
	out := make([]uint32, len(subset))
	for i, uid := range subset {
		c, ok := idx[uid]
		if !ok {
			return nil, fmt.Errorf("gg20: signer %q is not part of the original keygen roster", uid)
		}
		out[i] = c
	}
	return out, nil
}

func thresholdFromCounts(counts []uint32) (int, error) {
	var total uint32
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, fmt.Errorf("gg20: zero total shares")
	}
	return int(total) - 1, nil
}

func (h *signingHandle) Start() error {
	go h.pumpOutgoing()
	go h.awaitResult()
	for _, p := range h.parties {
		if err := p.Start(); err != nil {
			if criminals := culpritsToCriminals(err); criminals != nil {
				h.done <- Result{Criminals: criminals}
				return nil
			}
			return fmt.Errorf("gg20: signing start: %w", err)
		}
	}
	return nil
}

func (h *signingHandle) Feed(m Message) error {
	senderShares := h.roster.mine(m.PartyUID)
	if len(senderShares) == 0 {
		return fmt.Errorf("gg20: message from unknown signer %q", m.PartyUID)
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("gg20: empty traffic payload")
	}
	shareIdx := int(m.Payload[0])
	if shareIdx >= len(senderShares) {
		return fmt.Errorf("gg20: share index %d out of range for %q", shareIdx, m.PartyUID)
	}
	from := senderShares[shareIdx]
	parsed, err := tss.ParseWireMessage(m.Payload[1:], from, m.IsBroadcast)
	if err != nil {
		return fmt.Errorf("gg20: parsing wire message from %s: %w", from.Moniker, err)
	}
	for _, p := range h.parties {
		if _, err := p.Update(parsed); err != nil {
			if criminals := culpritsToCriminals(err); criminals != nil {
				h.done <- Result{Criminals: criminals}
				return nil
			}
			return fmt.Errorf("gg20: signing update: %w", err)
		}
	}
	return nil
}

func (h *signingHandle) Outgoing() <-chan Message { return h.out }
func (h *signingHandle) Done() <-chan Result      { return h.done }
func (h *signingHandle) Abort()                   { h.stopOnce.Do(func() { close(h.stopCh) }) }

func (h *signingHandle) pumpOutgoing() {
	for {
		select {
		case <-h.stopCh:
			return
		case msg, ok := <-h.tssOut:
			if !ok {
				return
			}
			h.relay(msg)
		}
	}
}

func (h *signingHandle) relay(msg tss.Message) {
	wireBytes, routing, err := msg.WireBytes()
	if err != nil {
		return
	}
	shareIdx := shareIndexOf(h.mine, routing.From)
	payload := append([]byte{byte(shareIdx)}, wireBytes...)

	if routing.IsBroadcast || len(routing.To) == 0 {
		h.send(Message{Payload: payload, IsBroadcast: true})
		return
	}
	seen := map[string]bool{}
	for _, to := range routing.To {
		phys := physicalOf(to)
		if seen[phys] || phys == physicalOf(routing.From) {
			continue
		}
		seen[phys] = true
		h.send(Message{Payload: payload, PartyUID: phys})
	}
}

func (h *signingHandle) send(m Message) {
	select {
	case h.out <- m:
	case <-h.stopCh:
	}
}

func (h *signingHandle) awaitResult() {
	var signature []byte
	for i, end := range h.ends {
		select {
		case <-h.stopCh:
			return
		case data := <-end:
			if signature == nil {
				signature = append(append([]byte(nil), data.R...), data.S...)
			}
			_ = i
		}
	}
	h.done <- Result{Sign: &SignArtifact{Signature: signature}}
}
