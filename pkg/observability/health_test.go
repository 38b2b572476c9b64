package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPing(context.Context) error { return nil }

func failingPing(context.Context) error { return errors.New("connection refused") }

func TestHealthRegistry_Empty(t *testing.T) {
	health := NewHealthRegistry().Check(context.Background())

	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Empty(t, health.Checks)
}

func TestHealthRegistry_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		want     HealthStatus
	}{
		{
			name: "all healthy",
			checkers: map[string]HealthChecker{
				"database": PingHealthChecker("database", okPing, HealthStatusUnhealthy),
				"outbox":   PingHealthChecker("outbox", okPing, HealthStatusDegraded),
			},
			want: HealthStatusHealthy,
		},
		{
			name: "degraded dependency",
			checkers: map[string]HealthChecker{
				"database": PingHealthChecker("database", okPing, HealthStatusUnhealthy),
				"outbox":   PingHealthChecker("outbox", failingPing, HealthStatusDegraded),
			},
			want: HealthStatusDegraded,
		},
		{
			name: "unhealthy dependency",
			checkers: map[string]HealthChecker{
				"database": PingHealthChecker("database", failingPing, HealthStatusUnhealthy),
				"outbox":   PingHealthChecker("outbox", failingPing, HealthStatusDegraded),
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for name, checker := range tt.checkers {
				registry.Register(name, checker)
			}

			health := registry.Check(context.Background())

			assert.Equal(t, tt.want, health.Status)
			assert.Len(t, health.Checks, len(tt.checkers))
		})
	}
}

func TestPingHealthChecker_Message(t *testing.T) {
	result := PingHealthChecker("database", failingPing, HealthStatusUnhealthy)(context.Background())

	require.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Equal(t, "database check failed: connection refused", result.Message)
}
