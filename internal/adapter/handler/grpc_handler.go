package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "orderconsole.Synchronizer"

// GRPCHandler publishes the synchronizer's refresh outcome through the
// standard gRPC health service.
type GRPCHandler struct {
	source StatusSource
	health *health.Server
}

func NewGRPCHandler(source StatusSource) *GRPCHandler {
	h := &GRPCHandler{source: source, health: health.NewServer()}
	h.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Update copies the current refresh state into the health server.
func (h *GRPCHandler) Update() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	refreshedAt, err := h.source.Health()
	if err != nil || refreshedAt.IsZero() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	h.health.SetServingStatus("", status)
	return status
}

// Run updates the health status every interval until ctx ends, then marks
// every service as not serving.
func (h *GRPCHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Update()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Update()
		}
	}
}

func (h *GRPCHandler) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
