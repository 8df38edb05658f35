// Package partytest is an in-process multi-party test harness: it runs
// several session.RunKeygen/RunSign goroutines directly against each
// other over in-memory channels instead of a real gRPC connection, the
// same shape original_source/src/tests/mod.rs and tofnd_party.rs drive
// over TCP. It exists for package tests, not production code.
package partytest

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/shardkeep/partyd/proto"
)

// memStream implements proto.Gg20_KeygenServer and proto.Gg20_SignServer
// (both have the same Send/Recv shape) over a pair of channels, so a
// session can run against it with no network involved.
type memStream struct {
	in  <-chan *proto.MessageIn
	out chan<- *proto.MessageOut
}

func newMemStream(in <-chan *proto.MessageIn, out chan<- *proto.MessageOut) *memStream {
	return &memStream{in: in, out: out}
}

func (s *memStream) Send(m *proto.MessageOut) error {
	s.out <- m
	return nil
}

func (s *memStream) Recv() (*proto.MessageIn, error) {
	m, ok := <-s.in
	if !ok {
		return nil, errStreamClosed
	}
	return m, nil
}

// grpc.ServerStream methods: no-ops, nothing in the harness inspects
// headers, trailers or the context.
func (s *memStream) SetHeader(metadata.MD) error  { return nil }
func (s *memStream) SendHeader(metadata.MD) error { return nil }
func (s *memStream) SetTrailer(metadata.MD)       {}
func (s *memStream) Context() context.Context     { return context.Background() }
func (s *memStream) SendMsg(m any) error           { return nil }
func (s *memStream) RecvMsg(m any) error           { return nil }

var errStreamClosed = streamClosedError{}

type streamClosedError struct{}

func (streamClosedError) Error() string { return "partytest: stream closed" }
