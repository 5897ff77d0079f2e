package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestCheck_NoProbes(t *testing.T) {
	srv := NewServer(nil, nil)
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestCheck_PingerFailure(t *testing.T) {
	srv := NewServer(&mockPinger{pingErr: errors.New("connection refused")}, &mockPolicyChecker{})
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check must not return gRPC error on ping failure: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestCheck_PolicyFailure(t *testing.T) {
	srv := NewServer(&mockPinger{}, &mockPolicyChecker{healthErr: errors.New("compile")})
	resp, _ := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestCheck_UnknownService(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "other"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}

func TestProbe_ExtraCheckPanicIsFailure(t *testing.T) {
	srv := NewServer(nil, nil, Check{Name: "redis", Fn: func(context.Context) error { panic("nil client") }})
	failed := srv.Probe(context.Background())
	if _, ok := failed["redis"]; !ok {
		t.Errorf("failed = %v, want redis", failed)
	}
}

func TestServeHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&mockPinger{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv := NewServer(&mockPinger{pingErr: errors.New("down")}, &mockPolicyChecker{healthErr: errors.New("down")})
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d", rec.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Failed) != 2 || body.Failed[0] != "database" || body.Failed[1] != "policy" {
		t.Errorf("failed = %v", body.Failed)
	}
}
