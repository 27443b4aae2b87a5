package health

import (
	"context"
	"time"
)

// Pinger is any dependency that can answer a liveness ping; *pgxpool.Pool
// satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type check struct {
	name     string
	pinger   Pinger
	optional bool
}

type HealthChecker struct {
	checks []check
}

type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Optional     bool   `json:"optional,omitempty"`
	Error        string `json:"error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// Require registers a dependency whose failure makes the service unhealthy.
func (h *HealthChecker) Require(name string, p Pinger) *HealthChecker {
	h.checks = append(h.checks, check{name: name, pinger: p})
	return h
}

// Optional registers a dependency the service can run without.
func (h *HealthChecker) Optional(name string, p Pinger) *HealthChecker {
	h.checks = append(h.checks, check{name: name, pinger: p, optional: true})
	return h
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "healthy", Components: make(map[string]ComponentHealth, len(h.checks))}

	for _, c := range h.checks {
		comp := ping(ctx, c.pinger)
		comp.Optional = c.optional
		status.Components[c.name] = comp
		if comp.Status != "healthy" && !c.optional {
			status.Status = "unhealthy"
		}
	}
	return status
}

func ping(ctx context.Context, p Pinger) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime, Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
