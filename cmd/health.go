package cmd

import (
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthServer serves the standard gRPC health protocol for orchestrators
type healthServer struct {
	server *grpc.Server
	health *health.Server
}

func startHealthServer(addr string) (*healthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	hs := &healthServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(hs.server, hs.health)
	hs.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.WithField("addr", listener.Addr().String()).Info("gRPC health server listening")
		if err := hs.server.Serve(listener); err != nil {
			log.WithError(err).Error("gRPC health server stopped")
		}
	}()
	return hs, nil
}

// Shutdown reports NOT_SERVING and stops the server
func (hs *healthServer) Shutdown() {
	hs.health.Shutdown()
	hs.server.GracefulStop()
}
