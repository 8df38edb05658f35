// Package proto holds the wire messages and service definition described
// by partyd.proto. partyd serves them over a gob codec (codec.go) rather
// than the protobuf wire format, so these types are plain Go structs
// maintained by hand instead of protoc output. Every exported field
// below corresponds 1:1 to a field in partyd.proto.
package proto

// KeygenInit opens a Keygen RPC. The session validates it (non-empty
// UIDs, index in range, share counts aligned, threshold achievable)
// before accepting one.
type KeygenInit struct {
	NewKeyUID        string
	PartyUIDs        []string
	PartyShareCounts []uint32
	MyPartyIndex     uint32
	Threshold        uint32
}

// SignInit opens a Sign RPC.
type SignInit struct {
	NewSigUID     string
	KeyUID        string
	PartyUIDs     []string
	MessageToSign []byte
}

// TrafficIn wraps one inbound peer message, relayed by the client from
// another party (partyd never talks to peers directly).
type TrafficIn struct {
	Payload      []byte
	FromPartyUID string
	IsBroadcast  bool
}

// MessageIn is the tagged union clients send into Keygen/Sign streams.
// Exactly one of the fields is set; Abort is a bare signal with no
// payload of its own.
type MessageIn struct {
	KeygenInit *KeygenInit
	SignInit   *SignInit
	Traffic    *TrafficIn
	Abort      bool
}

// TrafficOut wraps one outbound message the GG20 library emitted, bound
// for a peer (or all peers, if IsBroadcast).
type TrafficOut struct {
	Payload     []byte
	ToPartyUID  string
	IsBroadcast bool
}

// Criminal names one peer the GG20 library identified as having
// misbehaved during a ceremony.
type Criminal struct {
	PartyUID  string
	CrimeType string
}

// Criminals is the list of misbehaving peers; this is a successful RPC
// result, never a transport error. It is empty when the client aborted
// the ceremony.
type Criminals struct {
	Criminals []Criminal
}

// KeygenOutput is the artifact a successful keygen (or recover) produces.
type KeygenOutput struct {
	PubKey             []byte
	PrivateKeyInfo     []byte
	GroupRecoverInfo   []byte
	PrivateRecoverInfo []byte
}

// KeygenResult is the terminal frame of a Keygen RPC.
type KeygenResult struct {
	Data      *KeygenOutput
	Criminals *Criminals
}

// SignResult is the terminal frame of a Sign RPC.
type SignResult struct {
	Signature []byte
	Criminals *Criminals
}

// MessageOut is the tagged union servers send out of Keygen/Sign streams.
type MessageOut struct {
	Traffic              *TrafficOut
	KeygenResult         *KeygenResult
	SignResult           *SignResult
	NeedRecoverSessionID string
}

// RecoverRequest drives the Recover RPC.
type RecoverRequest struct {
	KeygenInit   *KeygenInit
	KeygenOutput *KeygenOutput
}

type RecoverResult int32

const (
	RecoverSuccess RecoverResult = iota
	RecoverFail
)

type RecoverResponse struct {
	Response RecoverResult
}

type KeyPresenceResult int32

const (
	Present KeyPresenceResult = iota
	Absent
	PresenceFail
)

type KeyPresenceRequest struct {
	KeyUID string
}

type KeyPresenceResponse struct {
	Response KeyPresenceResult
}
