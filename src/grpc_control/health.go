package grpc_control

import (
	"fmt"
	"net"

	"sensor-etl/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceReadings is the health service name of the readings API.
const ServiceReadings = "sensor.readings"

// -----------------------------------------------------------------------------

// HealthServer exposes the standard gRPC health protocol so orchestrators can
// probe the process. Everything reports NOT_SERVING until SetServing.
type HealthServer struct {
	Host   string
	Port   int
	Logger *logger.Logger
	grpc   *grpc.Server
	health *health.Server
}

// -----------------------------------------------------------------------------

func NewHealthServer(host string, port int, log *logger.Logger) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		Host:   host,
		Port:   port,
		Logger: log,
		grpc:   srv,
		health: hs,
	}
}

// -----------------------------------------------------------------------------

// SetServing marks the process and the named services healthy.
func (h *HealthServer) SetServing(services ...string) {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, s := range services {
		h.health.SetServingStatus(s, healthpb.HealthCheckResponse_SERVING)
	}
}

// SetNotServing marks the process and the named services unhealthy.
func (h *HealthServer) SetNotServing(services ...string) {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, s := range services {
		h.health.SetServingStatus(s, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// -----------------------------------------------------------------------------

// Start listens on Host:Port and blocks until Stop.
func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", h.Host, h.Port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return h.Serve(lis)
}

// Serve blocks serving on an existing listener.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	return h.grpc.Serve(lis)
}

// Stop flips every status to NOT_SERVING and drains in-flight calls.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
