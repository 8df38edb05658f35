package gg20

// Handle is the opaque protocol handle a session drives.
// One Handle runs one ceremony (keygen, sign, or the keygen half of a
// recovery) for this party, possibly across several of this party's own
// shares internally.
//
// The session owns exactly one Handle at a time and serialises access to
// it: Feed is only ever called from the inbound pump, Outgoing/Done are
// only ever drained by the outbound pump: a single owning goroutine
// interleaves the two via select.
type Handle interface {
	// Start begins the ceremony, emitting this party's first-round
	// messages onto Outgoing.
	Start() error

	// Feed delivers one inbound peer message to the library.
	Feed(Message) error

	// Outgoing carries every message the library wants sent to peers.
	Outgoing() <-chan Message

	// Done carries exactly one Result once the ceremony finishes, then
	// is never written to again.
	Done() <-chan Result

	// Abort releases any goroutines/resources Start created without
	// waiting for Done. Safe to call after Done has already fired.
	Abort()
}
