// Package grpc exposes the dictation controller as a small gRPC service so
// that window-manager bindings and scripts can toggle recording.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Server wraps the gRPC server and the control service
type Server struct {
	grpcServer *grpc.Server
	addr       string
}

// NewServer creates a server for controller listening on addr
func NewServer(addr string, controller Controller) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(grpc.UnaryInterceptor(logUnary)),
		addr:       addr,
	}
	RegisterControlServer(s.grpcServer, NewControlService(controller))
	return s
}

// Start listens on the configured address and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener
func (s *Server) Serve(lis net.Listener) error {
	log.Info().Str("component", "grpc").Str("addr", lis.Addr().String()).Msg("control service listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	started := time.Now()
	resp, err := handler(ctx, req)
	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.Str("component", "grpc").
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("elapsed", time.Since(started)).
		Msg("rpc")
	return resp, err
}
