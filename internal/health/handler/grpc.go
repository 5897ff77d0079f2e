package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the gRPC health service name reported for the task board.
const ServiceName = "taskboard"

const checkTimeout = 2 * time.Second

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Server implements grpc.health.v1.Health and the HTTP /healthz endpoint over the same checks.
type Server struct {
	grpc_health_v1.UnimplementedHealthServer
	checks []Check
}

// NewServer returns a health server. Nil pinger or policy are skipped; extra adds more probes (e.g. Redis).
func NewServer(pinger Pinger, policy PolicyChecker, extra ...Check) *Server {
	var checks []Check
	if pinger != nil {
		checks = append(checks, Check{Name: "database", Fn: pinger.PingContext})
	}
	if policy != nil {
		checks = append(checks, Check{Name: "policy", Fn: policy.HealthCheck})
	}
	for _, c := range extra {
		if c.Fn != nil {
			checks = append(checks, c)
		}
	}
	return &Server{checks: checks}
}

// Check returns SERVING when every probe passes and NOT_SERVING otherwise. Probe failures are not gRPC errors.
func (s *Server) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if len(s.Probe(ctx)) > 0 {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return &grpc_health_v1.HealthCheckResponse{Status: st}, nil
}

// Probe runs every check and returns the failures by name.
func (s *Server) Probe(ctx context.Context) map[string]error {
	failed := make(map[string]error)
	for _, c := range s.checks {
		if err := runCheck(ctx, c); err != nil {
			failed[c.Name] = err
		}
	}
	return failed
}

func runCheck(ctx context.Context, c Check) (err error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("check panicked: ", r))
		}
	}()
	return c.Fn(ctx)
}
