package session

import (
	"fmt"
	"io"

	"github.com/shardkeep/partyd/internal/gg20"
	"github.com/shardkeep/partyd/proto"
)

// stream is the part of Gg20_KeygenServer/Gg20_SignServer the pump needs;
// both satisfy it with identical method sets.
type stream interface {
	Send(*proto.MessageOut) error
	Recv() (*proto.MessageIn, error)
}

// maxRounds bounds how many protocol rounds' worth of traffic the inbound
// pump will buffer per peer before backpressuring Recv. GG20 ceremonies
// a well-behaved ceremony tops out well under this.
const maxRounds = 20

func bufferSize(partyCount int) int {
	if partyCount < 1 {
		partyCount = 1
	}
	return partyCount * maxRounds
}

// readLoop drains stream.Recv() onto inCh until it errors (client hangup,
// context cancellation, or Recv-layer failure), then reports the error
// once and returns. It never closes inCh, since the ceremony loop alone
// decides when the session is over.
func readLoop(s stream, inCh chan<- *proto.MessageIn, errCh chan<- error, stopCh <-chan struct{}) {
	for {
		msg, err := s.Recv()
		if err != nil {
			select {
			case errCh <- err:
			case <-stopCh:
			}
			return
		}
		select {
		case inCh <- msg:
		case <-stopCh:
			return
		}
	}
}

// runCeremony drives one GG20 Handle to completion: it relays TrafficIn
// frames from the client into Feed, TrafficOut frames from Outgoing back
// to the client, and returns the terminal Result once Done fires. A
// client Abort frame closes the ceremony cleanly with an empty criminal
// list, not a transport error; a broken stream still ends the ceremony
// early with a nil Result and an AbortError explaining why.
func runCeremony(s stream, handle gg20.Handle, partyCount int) (gg20.Result, error) {
	stopCh := make(chan struct{})
	defer close(stopCh)

	inCh := make(chan *proto.MessageIn, bufferSize(partyCount))
	errCh := make(chan error, 1)
	go readLoop(s, inCh, errCh, stopCh)

	for {
		select {
		case msg := <-inCh:
			if msg.Abort {
				handle.Abort()
				return gg20.Result{Criminals: []gg20.Criminal{}}, nil
			}
			if msg.Traffic == nil {
				handle.Abort()
				return gg20.Result{}, abortf(ReasonInvalidArgument, "session: expected traffic, got %+v", msg)
			}
			if err := handle.Feed(toGG20Message(msg.Traffic)); err != nil {
				handle.Abort()
				return gg20.Result{}, abortf(ReasonInternal, "session: feeding traffic: %v", err)
			}
		case err := <-errCh:
			handle.Abort()
			if err == io.EOF {
				return gg20.Result{}, abort(ReasonUnavailable, fmt.Errorf("session: peer closed stream before the ceremony finished"))
			}
			return gg20.Result{}, abortf(ReasonUnavailable, "session: reading from peer: %v", err)
		case out := <-handle.Outgoing():
			if err := s.Send(&proto.MessageOut{Traffic: toProtoTraffic(out)}); err != nil {
				handle.Abort()
				return gg20.Result{}, abortf(ReasonUnavailable, "session: sending traffic: %v", err)
			}
		case result := <-handle.Done():
			return result, nil
		}
	}
}

func toGG20Message(t *proto.TrafficIn) gg20.Message {
	return gg20.Message{
		Payload:     t.Payload,
		PartyUID:    t.FromPartyUID,
		IsBroadcast: t.IsBroadcast,
	}
}

func toProtoTraffic(m gg20.Message) *proto.TrafficOut {
	return &proto.TrafficOut{
		Payload:     m.Payload,
		ToPartyUID:  m.PartyUID,
		IsBroadcast: m.IsBroadcast,
	}
}

// toProtoCriminals converts a ceremony's culprit list to the wire type.
// nil means "no Criminals frame", not "empty": an aborted ceremony
// reports a non-nil, empty list so the client sees a clean Faulted
// close rather than no result at all.
func toProtoCriminals(cs []gg20.Criminal) *proto.Criminals {
	if cs == nil {
		return nil
	}
	out := make([]proto.Criminal, len(cs))
	for i, c := range cs {
		out[i] = proto.Criminal{PartyUID: c.PartyUID, CrimeType: c.CrimeType}
	}
	return &proto.Criminals{Criminals: out}
}
