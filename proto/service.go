package proto

import (
	"context"

	"google.golang.org/grpc"
)

// Gg20Server is the interface the dispatcher implements.
type Gg20Server interface {
	Keygen(Gg20_KeygenServer) error
	Sign(Gg20_SignServer) error
	Recover(context.Context, *RecoverRequest) (*RecoverResponse, error)
	KeyPresence(context.Context, *KeyPresenceRequest) (*KeyPresenceResponse, error)
}

// Gg20_KeygenServer is the server side of the Keygen bidirectional
// stream: one MessageIn in, one MessageOut out, any number of times.
type Gg20_KeygenServer interface {
	Send(*MessageOut) error
	Recv() (*MessageIn, error)
	grpc.ServerStream
}

// Gg20_SignServer is the Sign RPC's stream counterpart.
type Gg20_SignServer interface {
	Send(*MessageOut) error
	Recv() (*MessageIn, error)
	grpc.ServerStream
}

type gg20KeygenServer struct{ grpc.ServerStream }

func (s *gg20KeygenServer) Send(m *MessageOut) error { return s.ServerStream.SendMsg(m) }
func (s *gg20KeygenServer) Recv() (*MessageIn, error) {
	m := new(MessageIn)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type gg20SignServer struct{ grpc.ServerStream }

func (s *gg20SignServer) Send(m *MessageOut) error { return s.ServerStream.SendMsg(m) }
func (s *gg20SignServer) Recv() (*MessageIn, error) {
	m := new(MessageIn)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _Gg20_Keygen_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(Gg20Server).Keygen(&gg20KeygenServer{stream})
}

func _Gg20_Sign_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(Gg20Server).Sign(&gg20SignServer{stream})
}

func _Gg20_Recover_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RecoverRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Gg20Server).Recover(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/partyd.Gg20/Recover"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Gg20Server).Recover(ctx, req.(*RecoverRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Gg20_KeyPresence_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(KeyPresenceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Gg20Server).KeyPresence(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/partyd.Gg20/KeyPresence"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Gg20Server).KeyPresence(ctx, req.(*KeyPresenceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Gg20_ServiceDesc is registered with a *grpc.Server in main.go via
// grpc.Server.RegisterService; it is the hand-maintained equivalent of
// what protoc-gen-go-grpc would emit from partyd.proto.
var Gg20_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "partyd.Gg20",
	HandlerType: (*Gg20Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recover", Handler: _Gg20_Recover_Handler},
		{MethodName: "KeyPresence", Handler: _Gg20_KeyPresence_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Keygen", Handler: _Gg20_Keygen_Handler, ServerStreams: true, ClientStreams: true},
		{StreamName: "Sign", Handler: _Gg20_Sign_Handler, ServerStreams: true, ClientStreams: true},
	},
	Metadata: "partyd.proto",
}

func RegisterGg20Server(s *grpc.Server, srv Gg20Server) {
	s.RegisterService(&Gg20_ServiceDesc, srv)
}
