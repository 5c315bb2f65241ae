package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"school-management/backend/internal/health"
)

// NewGRPCServer returns a gRPC server instrumented with OpenTelemetry stats.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	return grpc.NewServer(opts...)
}

// RegisterServices registers the gRPC services. Only the standard health service is served over
// gRPC; the auth API is HTTP. reflect enables server reflection for grpcurl in development.
func RegisterServices(s grpc.ServiceRegistrar, checker *health.Checker, reflect bool) {
	if checker != nil {
		healthpb.RegisterHealthServer(s, checker.Server())
	}
	if reflect {
		if r, ok := s.(reflection.GRPCServer); ok {
			reflection.Register(r)
		}
	}
}
