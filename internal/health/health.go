package health

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type DependencyStatus string

const (
	DependencyUp   DependencyStatus = "up"
	DependencyDown DependencyStatus = "down"
)

// Check is the result of probing one dependency
type Check struct {
	Status    DependencyStatus `json:"status"`
	LatencyMs int64            `json:"latencyMs"`
	Message   string           `json:"message,omitempty"`
}

// Report is the tri-state service health summary exposed to orchestration
// probes. Derived on demand, never stored.
type Report struct {
	Status    Status           `json:"status"`
	Service   string           `json:"service"`
	Timestamp int64            `json:"timestamp"`
	Uptime    int64            `json:"uptime"`
	Checks    map[string]Check `json:"checks"`
}

// Checker probes a single dependency
type Checker interface {
	Name() string
	Check(ctx context.Context) Check
}

// Aggregator folds dependency checks into one service health report
type Aggregator struct {
	service  string
	started  time.Time
	checkers []Checker
}

// NewAggregator creates a health aggregator for the named service
func NewAggregator(service string, checkers ...Checker) *Aggregator {
	return &Aggregator{
		service:  service,
		started:  time.Now(),
		checkers: checkers,
	}
}

// CheckHealth probes every dependency and folds the results: healthy iff
// all are up, unhealthy iff any is down. The degraded branch is headroom
// for partial states a future dependency may report; the current set only
// ever yields up or down.
func (a *Aggregator) CheckHealth(ctx context.Context) *Report {
	checks := make(map[string]Check, len(a.checkers))
	allUp := true
	anyDown := false

	for _, checker := range a.checkers {
		check := checker.Check(ctx)
		checks[checker.Name()] = check

		if check.Status != DependencyUp {
			allUp = false
		}
		if check.Status == DependencyDown {
			anyDown = true
		}
	}

	status := StatusDegraded
	if allUp {
		status = StatusHealthy
	} else if anyDown {
		status = StatusUnhealthy
	}

	return &Report{
		Status:    status,
		Service:   a.service,
		Timestamp: time.Now().UnixMilli(),
		Uptime:    time.Since(a.started).Milliseconds(),
		Checks:    checks,
	}
}

// ConnFlag probes a connection-state flag maintained by a long-lived
// component. It never performs the component's blocking operation, so the
// health path cannot stall behind a publish or a fetch.
type ConnFlag struct {
	DepName   string
	Connected func() bool
	UpMsg     string
	DownMsg   string
}

func (c *ConnFlag) Name() string { return c.DepName }

func (c *ConnFlag) Check(ctx context.Context) Check {
	start := time.Now()
	status := DependencyDown
	message := c.DownMsg
	if c.Connected() {
		status = DependencyUp
		message = c.UpMsg
	}
	return Check{
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Message:   message,
	}
}

// Ping probes a dependency with a lightweight administrative ping, the
// one exception to the flag-only rule (used for store liveness).
type Ping struct {
	DepName string
	PingFn  func(ctx context.Context) error
	UpMsg   string
}

func (p *Ping) Name() string { return p.DepName }

func (p *Ping) Check(ctx context.Context) Check {
	start := time.Now()
	if err := p.PingFn(ctx); err != nil {
		return Check{
			Status:    DependencyDown,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   err.Error(),
		}
	}
	return Check{
		Status:    DependencyUp,
		LatencyMs: time.Since(start).Milliseconds(),
		Message:   p.UpMsg,
	}
}

// memoryLimitRatio is the heap-used/heap-total ratio above which the
// memory pseudo-dependency reports down.
const memoryLimitRatio = 0.90

// Memory is the heap-pressure pseudo-dependency contributing to the fold
type Memory struct{}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Check(ctx context.Context) Check {
	start := time.Now()

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usedMB := stats.HeapAlloc / 1024 / 1024
	totalMB := stats.HeapSys / 1024 / 1024
	ratio := float64(stats.HeapAlloc) / float64(stats.HeapSys)

	status := DependencyUp
	if ratio >= memoryLimitRatio {
		status = DependencyDown
	}

	return Check{
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Message:   fmt.Sprintf("Heap: %dMB / %dMB (%.1f%%)", usedMB, totalMB, ratio*100),
	}
}
