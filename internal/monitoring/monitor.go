package monitoring

import (
	"context"
	"log"
	"sync"
	"time"
)

// Component states reported on the health endpoint
const (
	StatusUp       = "up"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Health is the body served by the health endpoint
type Health struct {
	Status        string            `json:"status"`
	Components    map[string]string `json:"components"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}

// Check tests a component; an error marks it down
type Check func(ctx context.Context) error

// Monitor tracks the state of each service component
type Monitor struct {
	components map[string]string
	checks     map[string]Check
	mu         sync.RWMutex
	startTime  time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		components: make(map[string]string),
		checks:     make(map[string]Check),
		startTime:  time.Now(),
	}
}

// AddCheck registers a check run on every health request
func (m *Monitor) AddCheck(component string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[component] = check
}

// RunChecks runs every registered check and records the outcome
func (m *Monitor) RunChecks(ctx context.Context) {
	m.mu.RLock()
	checks := make(map[string]Check, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.RUnlock()

	for component, check := range checks {
		status := StatusUp
		if err := check(ctx); err != nil {
			log.Printf("monitoring: %s check failed: %v", component, err)
			status = StatusDown
		}
		m.SetStatus(component, status)
	}
}

// SetStatus records the state of a component
func (m *Monitor) SetStatus(component, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[component] = status
}

// Status returns the state of one component
func (m *Monitor) Status(component string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.components[component]
	return status, ok
}

// Health runs the checks and summarizes every component. Any
// down component marks the service down, any degraded one marks it degraded.
func (m *Monitor) Health(ctx context.Context) Health {
	m.RunChecks(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	h := Health{
		Status:        StatusUp,
		Components:    make(map[string]string, len(m.components)),
		UptimeSeconds: time.Since(m.startTime).Seconds(),
	}
	for k, v := range m.components {
		h.Components[k] = v
		switch {
		case v == StatusDown:
			h.Status = StatusDown
		case v == StatusDegraded && h.Status == StatusUp:
			h.Status = StatusDegraded
		}
	}
	return h
}
