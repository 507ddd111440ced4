package services

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"ogctz/internal/infrastructure"
)

// Readiness states
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string
	BuildTime string
	BuildID   string
}

// HealthService provides health check functionality
type HealthService struct {
	info      BuildInfo
	startTime time.Time
	logger    *slog.Logger

	mu     sync.RWMutex
	checks map[string]ComponentCheck
}

// ComponentCheck reports the readiness of one component
type ComponentCheck func(ctx context.Context) ServiceHealth

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime,omitempty"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(info BuildInfo, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		info:      info,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
		checks:    make(map[string]ComponentCheck),
	}
}

// AddCheck registers a readiness check under name, replacing any previous one
func (hs *HealthService) AddCheck(name string, check ComponentCheck) {
	hs.mu.Lock()
	hs.checks[name] = check
	hs.mu.Unlock()
}

// HealthCheck returns overall health status. It always reports ok while
// the process can answer.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.info.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// ReadinessCheck runs every registered check. The overall status is ready
// only when all components are.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	hs.mu.RLock()
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]ComponentCheck, len(names))
	for i, name := range names {
		checks[i] = hs.checks[name]
	}
	hs.mu.RUnlock()

	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.info.Version,
		Services:  make(map[string]ServiceHealth, len(names)),
	}

	for i, name := range names {
		result := checks[i](ctx)
		status.Services[name] = result
		if result.Status != StatusReady {
			status.Status = StatusNotReady
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.info.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.info.Version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.info.BuildTime != "" {
		result["build_time"] = hs.info.BuildTime
	}
	if hs.info.BuildID != "" {
		result["build_id"] = hs.info.BuildID
	}

	return result
}
