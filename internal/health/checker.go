// Package health reports readiness over the standard gRPC health protocol and to the HTTP /healthz endpoint.
package health

import (
	"context"
	"errors"
	"log"
	"time"

	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall ("") status.
const ServiceName = "school.auth"

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker turns database pings into gRPC health status.
type Checker struct {
	server *grpchealth.Server
	pinger Pinger
}

// NewChecker returns a Checker. A nil pinger always reports healthy.
func NewChecker(pinger Pinger) *Checker {
	return &Checker{server: grpchealth.NewServer(), pinger: pinger}
}

// Server returns the gRPC health server to register.
func (c *Checker) Server() *grpchealth.Server { return c.server }

// Check pings the database once and updates the served status.
func (c *Checker) Check(ctx context.Context) error {
	err := c.ping(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return err
}

func (c *Checker) ping(ctx context.Context) error {
	if c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.pinger.PingContext(ctx); err != nil {
		return errors.Join(errors.New("database unreachable"), err)
	}
	return nil
}

// Run checks every interval until ctx is done, then marks the service NOT_SERVING.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	if err := c.Check(ctx); err != nil {
		log.Printf("health: %v", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			if err := c.Check(ctx); err != nil {
				log.Printf("health: %v", err)
			}
		}
	}
}
