// Package gg20 is the adapter between the session state machine and the
// GG20 threshold-ECDSA library (github.com/binance-chain/tss-lib). Per
// the cryptography itself is treated as an external collaborator with a
// defined contract; this package defines that contract (Handle) and
// implements it against tss-lib's real API.
package gg20

import "github.com/shardkeep/partyd/internal/mnemonic"

// Message is one wire message flowing between a Handle and its session:
// TrafficIn becomes a Feed call, TrafficOut arrives on Outgoing.
type Message struct {
	Payload     []byte
	PartyUID    string // for outgoing: destination; for incoming: source
	IsBroadcast bool
}

// Criminal is one peer the library identified as having deviated from
// the protocol.
type Criminal struct {
	PartyUID  string
	CrimeType string
}

// KeygenArtifact is the terminal output of a successful keygen: the
// group public key and this party's serialized shares, one per share it
// was assigned.
type KeygenArtifact struct {
	PubKey []byte
	Shares [][]byte // opaque, one gob-encoded tss-lib LocalPartySaveData per share
}

// SignArtifact is the terminal output of a successful signing ceremony.
type SignArtifact struct {
	Signature []byte
}

// Result is sent exactly once on Handle.Done(): either Keygen/Sign is
// set (success), or Criminals is non-empty (fault), or Err is set
// (internal failure). Never more than one of these holds.
type Result struct {
	Keygen    *KeygenArtifact
	Sign      *SignArtifact
	Criminals []Criminal
	Err       error
}

// KeygenInit is the sanitized, already-validated input to a keygen
// ceremony (proto.KeygenInit after session validation).
type KeygenInit struct {
	NewKeyUID        string
	PartyUIDs        []string
	PartyShareCounts []uint32
	MyIndex          int
	Threshold        int
}

// SignInit is the sanitized input to a signing ceremony.
type SignInit struct {
	KeyUID        string
	PartyUIDs     []string
	MyIndex       int
	MessageToSign [32]byte
}

// SecretRecoveryKey is re-exported so callers outside mnemonic don't need
// to import it directly just to call NewKeygenHandle.
type SecretRecoveryKey = mnemonic.SecretRecoveryKey
