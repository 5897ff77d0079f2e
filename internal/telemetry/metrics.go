package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskboard.auth"

// Login outcomes recorded on auth.login.attempts.
const (
	OutcomeSuccess       = "success"
	OutcomeMustChange    = "must_change_password"
	OutcomeInvalid       = "invalid_credentials"
	OutcomeLocked        = "locked"
	OutcomeMissingFields = "missing_fields"
)

// Metrics holds the auth counters. A nil *Metrics records nothing.
type Metrics struct {
	loginAttempts   metric.Int64Counter
	gateRejections  metric.Int64Counter
	passwordChanges metric.Int64Counter
	lockouts        metric.Int64Counter
}

// NewMetrics creates the auth counters on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	var m Metrics
	var err error
	if m.loginAttempts, err = meter.Int64Counter("auth.login.attempts",
		metric.WithDescription("Login attempts by outcome")); err != nil {
		return nil, err
	}
	if m.gateRejections, err = meter.Int64Counter("auth.gate.rejections",
		metric.WithDescription("Requests rejected by the auth gate, by code")); err != nil {
		return nil, err
	}
	if m.passwordChanges, err = meter.Int64Counter("auth.password.changes",
		metric.WithDescription("Successful password changes")); err != nil {
		return nil, err
	}
	if m.lockouts, err = meter.Int64Counter("auth.lockouts",
		metric.WithDescription("Accounts reaching the failure threshold")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) LoginAttempt(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) GateRejection(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.gateRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

func (m *Metrics) PasswordChanged(ctx context.Context) {
	if m == nil {
		return
	}
	m.passwordChanges.Add(ctx, 1)
}

func (m *Metrics) Lockout(ctx context.Context) {
	if m == nil {
		return
	}
	m.lockouts.Add(ctx, 1)
}
