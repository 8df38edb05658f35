package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkeep/partyd/internal/gg20"
	"github.com/shardkeep/partyd/proto"
)

// fakeHandle is a minimal gg20.Handle a test drives directly, with no
// real cryptography behind it.
type fakeHandle struct {
	out       chan gg20.Message
	done      chan gg20.Result
	aborted   bool
	abortedCh chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		out:       make(chan gg20.Message, 1),
		done:      make(chan gg20.Result, 1),
		abortedCh: make(chan struct{}),
	}
}

func (h *fakeHandle) Start() error                    { return nil }
func (h *fakeHandle) Feed(gg20.Message) error          { return nil }
func (h *fakeHandle) Outgoing() <-chan gg20.Message    { return h.out }
func (h *fakeHandle) Done() <-chan gg20.Result         { return h.done }
func (h *fakeHandle) Abort() {
	if !h.aborted {
		h.aborted = true
		close(h.abortedCh)
	}
}

// chanStream is a stream backed by a pair of channels, for driving
// runCeremony directly in tests.
type chanStream struct {
	in  chan *proto.MessageIn
	out chan *proto.MessageOut
}

func newChanStream() *chanStream {
	return &chanStream{
		in:  make(chan *proto.MessageIn, 1),
		out: make(chan *proto.MessageOut, 1),
	}
}

func (s *chanStream) Send(m *proto.MessageOut) error {
	s.out <- m
	return nil
}

func (s *chanStream) Recv() (*proto.MessageIn, error) {
	m, ok := <-s.in
	if !ok {
		return nil, errNoMoreMessages
	}
	return m, nil
}

// TestRunCeremonyAbortClosesCleanly covers the timeout/abort contract:
// a peer Abort frame must end the ceremony with a successful, empty
// Criminals result, never a transport-error status.
func TestRunCeremonyAbortClosesCleanly(t *testing.T) {
	handle := newFakeHandle()
	s := newChanStream()
	s.in <- &proto.MessageIn{Abort: true}

	result, err := runCeremony(s, handle, 2)
	require.NoError(t, err)
	assert.NotNil(t, result.Criminals)
	assert.Empty(t, result.Criminals)
	assert.Nil(t, result.Keygen)
	assert.Nil(t, result.Sign)
	assert.Nil(t, result.Err)

	select {
	case <-handle.abortedCh:
	default:
		t.Fatal("expected handle.Abort() to have been called")
	}
}

// TestToProtoCriminalsDistinguishesNilFromEmpty locks in the contract
// RunKeygen/RunSign rely on: nil means "no Criminals frame at all", a
// non-nil empty slice means "Faulted with nothing to report".
func TestToProtoCriminalsDistinguishesNilFromEmpty(t *testing.T) {
	assert.Nil(t, toProtoCriminals(nil))

	empty := toProtoCriminals([]gg20.Criminal{})
	require.NotNil(t, empty)
	assert.Empty(t, empty.Criminals)

	one := toProtoCriminals([]gg20.Criminal{{PartyUID: "alice", CrimeType: "equivocation"}})
	require.NotNil(t, one)
	assert.Len(t, one.Criminals, 1)
}
