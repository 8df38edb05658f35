// Package service wires the session, recovery and kv manager packages
// into the single proto.Gg20Server implementation the daemon registers
// with its gRPC server.
package service

import (
	"context"
	"log"

	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/internal/recovery"
	"github.com/shardkeep/partyd/internal/session"
	"github.com/shardkeep/partyd/proto"
)

// Config carries the startup choices that affect how a ceremony runs,
// distinct from the kv manager which carries what is persisted.
type Config struct {
	// SafePrimes is the daemon's --unsafe flag, inverted. Both settings
	// use tss-lib's safe-prime preparams generator; only the concurrency
	// it is given differs.
	SafePrimes bool
}

// Server is the Gg20Server the daemon registers. One Server instance is
// shared by every RPC; the kv manager beneath it serialises concurrent
// writers, so concurrent keygens for distinct key_uids proceed without
// contending on each other.
type Server struct {
	cfg Config
	kvm *kvmanager.Manager
}

func New(cfg Config, kvm *kvmanager.Manager) *Server {
	return &Server{cfg: cfg, kvm: kvm}
}

var _ proto.Gg20Server = (*Server)(nil)

func (s *Server) Keygen(stream proto.Gg20_KeygenServer) error {
	err := session.RunKeygen(stream, s.kvm, s.cfg.SafePrimes)
	if err != nil {
		log.Printf("[keygen] session ended: %v", err)
	}
	return err
}

func (s *Server) Sign(stream proto.Gg20_SignServer) error {
	err := session.RunSign(stream, s.kvm)
	if err != nil {
		log.Printf("[sign] session ended: %v", err)
	}
	return err
}

func (s *Server) Recover(ctx context.Context, req *proto.RecoverRequest) (*proto.RecoverResponse, error) {
	resp, err := recovery.Recover(req, s.kvm)
	if err != nil {
		log.Printf("[recover] failed: %v", err)
		return &proto.RecoverResponse{Response: proto.RecoverFail}, nil
	}
	return resp, nil
}

func (s *Server) KeyPresence(ctx context.Context, req *proto.KeyPresenceRequest) (*proto.KeyPresenceResponse, error) {
	present, err := s.kvm.Exists(req.KeyUID)
	if err != nil {
		log.Printf("[key_presence] checking %q: %v", req.KeyUID, err)
		return &proto.KeyPresenceResponse{Response: proto.PresenceFail}, nil
	}
	if present {
		return &proto.KeyPresenceResponse{Response: proto.Present}, nil
	}
	return &proto.KeyPresenceResponse{Response: proto.Absent}, nil
}
