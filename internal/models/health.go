// internal/models/health.go
package models

import "context"

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type ServiceHealth struct {
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthReporter is implemented by every collaborator that takes part in
// the aggregated health check.
type HealthReporter interface {
	Health(ctx context.Context) ServiceHealth
}
