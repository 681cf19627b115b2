package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusStopped   HealthStatus = "stopped"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a resource with a start/stop lifecycle, such as a background
// scheduler or a live subscription owned by a scenario.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start acquires the component's resources.
	Start(ctx context.Context) error

	// Stop releases the component's resources. It must be safe to call once
	// after a successful Start.
	Stop(ctx context.Context) error
}

// HealthChecker is optionally implemented by components that can report
// whether they are running.
type HealthChecker interface {
	Health(ctx context.Context) Health
}
