package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"code.dogecoin.org/governor"
	"google.golang.org/grpc"

	"github.com/shardkeep/partyd/internal/config"
	"github.com/shardkeep/partyd/internal/kdf"
	"github.com/shardkeep/partyd/internal/kv"
	"github.com/shardkeep/partyd/internal/kvmanager"
	"github.com/shardkeep/partyd/internal/mnemonic"
	"github.com/shardkeep/partyd/internal/service"
	"github.com/shardkeep/partyd/proto"
)

const dbFileName = "partyd.db"

func main() {
	stderr := log.New(os.Stderr, "", 0)

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		stderr.Fatalf("%v", err)
	}

	if err := os.MkdirAll(cfg.Directory, 0700); err != nil {
		stderr.Fatalf("--directory: %v", err)
	}

	dbPath := filepath.Join(cfg.Directory, dbFileName)
	_, statErr := os.Stat(dbPath)
	sentinelExists := statErr == nil

	password, err := kdf.Acquire(cfg.PasswordMethod, sentinelExists)
	if err != nil {
		stderr.Fatalf("%v", err)
	}

	store, err := kv.Open(dbPath, password)
	if err != nil {
		stderr.Fatalf("opening store: %v", err)
	}
	kvm := kvmanager.New(store)

	if err := mnemonic.Run(cfg.MnemonicCmd, store, cfg.Directory); err != nil {
		kvm.Close()
		stderr.Fatalf("mnemonic: %v", err)
	}
	switch cfg.MnemonicCmd {
	case mnemonic.Export, mnemonic.Import:
		// these commands do their one job and exit; they never start the
		// RPC server.
		kvm.Close()
		fmt.Println("done.")
		return
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		kvm.Close()
		stderr.Fatalf("listening on port %d: %v", cfg.Port, err)
	}

	gov := governor.New().CatchSignals().Restart(1 * time.Second)
	gov.Add("rpc", newRPCService(lis, kvm, cfg))

	gov.Start()
	gov.WaitForShutdown()
	kvm.Close()
	fmt.Println("finished.")
}

// rpcService adapts a *grpc.Server to governor.Service.
type rpcService struct {
	governor.ServiceCtx
	lis    net.Listener
	server *grpc.Server
}

func newRPCService(lis net.Listener, kvm *kvmanager.Manager, cfg config.Config) governor.Service {
	gsrv := grpc.NewServer(grpc.ForceServerCodec(proto.Codec))
	proto.RegisterGg20Server(gsrv, service.New(service.Config{SafePrimes: cfg.SafePrimes}, kvm))
	return &rpcService{lis: lis, server: gsrv}
}

// goroutine
func (r *rpcService) Run() {
	log.Printf("[partyd] listening on: %v", r.lis.Addr())
	if err := r.server.Serve(r.lis); err != nil {
		log.Printf("[partyd] gRPC server: %v", err)
	}
}

func (r *rpcService) Stop() {
	r.server.GracefulStop()
}
