package gg20

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/binance-chain/tss-lib/ecdsa/keygen"
	"github.com/binance-chain/tss-lib/tss"
)

// keygenHandle drives one or more tss-lib keygen.LocalParty instances,
// one per share this physical party was assigned, behind a single
// Handle. Messages from all of them are multiplexed onto one Outgoing
// channel and demultiplexed from one Feed call.
type keygenHandle struct {
	roster *roster
	mine   []*tss.PartyID
	parties []tss.Party

	tssOut chan tss.Message
	ends   []chan keygen.LocalPartySaveData

	out  chan Message
	done chan Result

	threshold int

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewKeygenHandle builds the keygen ceremony for init, generating fresh
// preparameters for each of this party's shares. safePrimes is the
// daemon's --unsafe flag, inverted; both settings run tss-lib's
// safe-prime preparams generator and differ only in the concurrency
// passed to it (see generatePreParams).
func NewKeygenHandle(init KeygenInit, safePrimes bool) (Handle, error) {
	r, err := buildRoster(init.PartyUIDs, init.PartyShareCounts)
	if err != nil {
		return nil, err
	}
	myUID := init.PartyUIDs[init.MyIndex]
	mine := r.mine(myUID)
	if len(mine) == 0 {
		return nil, fmt.Errorf("gg20: party %q has zero shares", myUID)
	}

	ctx := tss.NewPeerContext(r.sorted)

	h := &keygenHandle{
		roster:    r,
		mine:      mine,
		tssOut:    make(chan tss.Message, r.total()*2),
		out:       make(chan Message, r.total()*2),
		done:      make(chan Result, 1),
		threshold: init.Threshold,
		stopCh:    make(chan struct{}),
	}

	for _, myID := range mine {
		preParams, err := generatePreParams(safePrimes)
		if err != nil {
			return nil, fmt.Errorf("gg20: generating preparams for %s: %w", myID.Moniker, err)
		}
		params := tss.NewParameters(tss.S256(), ctx, myID, r.total(), init.Threshold)
		end := make(chan keygen.LocalPartySaveData, 1)
		h.ends = append(h.ends, end)
		h.parties = append(h.parties, keygen.NewLocalParty(params, h.tssOut, end, *preParams))
	}

	return h, nil
}

func (h *keygenHandle) Start() error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.pumpOutgoing()
	go h.awaitResult()

	for _, p := range h.parties {
		if err := p.Start(); err != nil {
			if criminals := culpritsToCriminals(err); criminals != nil {
				h.done <- Result{Criminals: criminals}
				return nil
			}
			return fmt.Errorf("gg20: keygen start: %w", err)
		}
	}
	return nil
}

func (h *keygenHandle) Feed(m Message) error {
	senderShares := h.roster.mine(m.PartyUID)
	if len(senderShares) == 0 {
		return fmt.Errorf("gg20: message from unknown party %q", m.PartyUID)
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("gg20: empty traffic payload")
	}
	shareIdx := int(m.Payload[0])
	if shareIdx >= len(senderShares) {
		return fmt.Errorf("gg20: share index %d out of range for %q", shareIdx, m.PartyUID)
	}
	from := senderShares[shareIdx]
	wireBytes := m.Payload[1:]

	parsed, err := tss.ParseWireMessage(wireBytes, from, m.IsBroadcast)
	if err != nil {
		return fmt.Errorf("gg20: parsing wire message from %s: %w", from.Moniker, err)
	}
	for _, p := range h.parties {
		if _, err := p.Update(parsed); err != nil {
			if criminals := culpritsToCriminals(err); criminals != nil {
				h.done <- Result{Criminals: criminals}
				return nil
			}
			return fmt.Errorf("gg20: keygen update: %w", err)
		}
	}
	return nil
}

func (h *keygenHandle) Outgoing() <-chan Message { return h.out }
func (h *keygenHandle) Done() <-chan Result      { return h.done }

func (h *keygenHandle) Abort() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// pumpOutgoing relays tss-lib's internal Message objects onto the
// session-facing channel, translating each virtual sender into the
// header byte Feed expects on the far side and each virtual destination
// set into the physical peer(s) that actually own a connection.
func (h *keygenHandle) pumpOutgoing() {
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

func (h *keygenHandle) relay(msg tss.Message) {
	wireBytes, routing, err := msg.WireBytes()
	if err != nil {
		return // a malformed outgoing message from the library is a defect, not a peer fault
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

func (h *keygenHandle) send(m Message) {
	select {
	case h.out <- m:
	case <-h.stopCh:
	}
}

func shareIndexOf(mine []*tss.PartyID, id *tss.PartyID) int {
	for i, m := range mine {
		if m == id {
			return i
		}
	}
	return 0
}

// awaitResult waits for every one of my local parties to finish (all
// shares of one key must converge), then assembles the KeygenArtifact.
// tss-lib surfaces faults as a *tss.Error from Start/Update; those are
// caught at the call sites, so awaitResult only needs to handle the
// success path plus the stop signal.
func (h *keygenHandle) awaitResult() {
	shares := make([][]byte, len(h.ends))
	var pubKey []byte
	for i, end := range h.ends {
		select {
		case <-h.stopCh:
			return
		case saveData := <-end:
			encoded, err := encodeSaveData(saveData)
			if err != nil {
				h.done <- Result{Err: fmt.Errorf("gg20: encoding share %d: %w", i, err)}
				return
			}
			shares[i] = encoded
			if pubKey == nil {
				pubKey = marshalECPoint(saveData.ECDSAPub)
			}
		}
	}
	h.done <- Result{Keygen: &KeygenArtifact{PubKey: pubKey, Shares: shares}}
}

func encodeSaveData(d keygen.LocalPartySaveData) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSaveData(b []byte) (keygen.LocalPartySaveData, error) {
	var d keygen.LocalPartySaveData
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&d)
	return d, err
}
