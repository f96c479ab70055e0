package telemetry

import (
	"sort"
	"sync"
	"time"
)

const (
	ComponentTokenEndpoint = "token_endpoint"
	ComponentRegistry      = "registry"
)

// HealthTracker remembers the last outcome reported by each upstream dependency.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]componentState
	now        func() time.Time
}

type componentState struct {
	healthy   bool
	lastError string
	updatedAt time.Time
}

type HealthReport struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
}

type ComponentHealth struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		components: make(map[string]componentState),
		now:        time.Now,
	}
}

// Mark records the latest outcome for a component. A nil error marks it healthy.
func (h *HealthTracker) Mark(component string, err error) {
	if h == nil || component == "" {
		return
	}
	state := componentState{healthy: err == nil, updatedAt: h.now()}
	if err != nil {
		state.lastError = err.Error()
	}
	h.mu.Lock()
	h.components[component] = state
	h.mu.Unlock()
}

// Report is "ok" until some component's latest outcome was a failure.
func (h *HealthTracker) Report() HealthReport {
	if h == nil {
		return HealthReport{Status: "ok"}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := HealthReport{Status: "ok"}
	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := h.components[name]
		if !state.healthy {
			report.Status = "degraded"
		}
		report.Components = append(report.Components, ComponentHealth{
			Name:      name,
			Healthy:   state.healthy,
			LastError: state.lastError,
			UpdatedAt: state.updatedAt,
		})
	}
	return report
}
