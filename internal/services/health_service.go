package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"stockpulse/internal/monitor"
)

// UpstreamStatusProvider reports the last upstream probe result
type UpstreamStatusProvider interface {
	Status() monitor.Status
}

// HealthService provides health check functionality
type HealthService struct {
	version         string
	buildTime       string
	buildID         string
	fallbackEnabled bool
	upstream        UpstreamStatusProvider
	startTime       time.Time
	logger          *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    float64                `json:"uptime_seconds"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Probe   *monitor.Status `json:"probe,omitempty"`
}

// NewHealthService creates a new health service. upstream may be nil when
// the monitor is disabled.
func NewHealthService(version, buildTime, buildID string, fallbackEnabled bool, upstream UpstreamStatusProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.Bool("monitor_enabled", upstream != nil))

	return &HealthService{
		version:         version,
		buildTime:       buildTime,
		buildID:         buildID,
		fallbackEnabled: fallbackEnabled,
		upstream:        upstream,
		startTime:       time.Now(),
		logger:          logger,
	}
}

// HealthCheck returns overall health status. The upstream being down only
// degrades the service while fallback data is available.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	upstream := hs.checkUpstreamHealth()

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Services:  map[string]interface{}{"upstream": upstream},
	}
	if upstream.Status == "down" {
		status.Status = "degraded"
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck returns readiness status. Without fallback the service is
// not ready while the upstream is down.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	upstream := hs.checkUpstreamHealth()

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Services: map[string]interface{}{
			"upstream": upstream,
			"fallback": hs.checkFallbackHealth(),
		},
	}

	if upstream.Status == "down" && !hs.fallbackEnabled {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// checkUpstreamHealth maps the last probe to "up", "down" or "unknown"
func (hs *HealthService) checkUpstreamHealth() ServiceHealth {
	if hs.upstream == nil {
		return ServiceHealth{Status: "unknown", Message: "upstream monitor disabled"}
	}

	probe := hs.upstream.Status()
	switch {
	case !probe.Checked:
		return ServiceHealth{Status: "unknown", Message: "no probe yet"}
	case probe.Healthy:
		return ServiceHealth{Status: "up", Probe: &probe}
	default:
		return ServiceHealth{Status: "down", Message: probe.LastError, Probe: &probe}
	}
}

func (hs *HealthService) checkFallbackHealth() ServiceHealth {
	if !hs.fallbackEnabled {
		return ServiceHealth{Status: "disabled"}
	}
	return ServiceHealth{Status: "ready", Message: "synthetic data available"}
}
