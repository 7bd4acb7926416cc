package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"fincast/internal/modelrunner"
	"fincast/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	runner    *modelrunner.Client
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// pingTimeout bounds the model-runner probe during readiness checks.
const pingTimeout = 2 * time.Second

// NewHealthService creates a health service. The model-runner client may be
// unconfigured; readiness reports its state without requiring it.
func NewHealthService(runner *modelrunner.Client, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		runner:    runner,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck returns readiness status. The model runner is an optional
// upstream: its reachability is reported but never blocks readiness, since
// the projection and analytics endpoints work without it.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["model_runner"] = hs.checkModelRunnerHealth(ctx)

	return status
}

// Version returns version and build metadata plus process uptime.
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// checkModelRunnerHealth probes the model runner with a bounded timeout.
func (hs *HealthService) checkModelRunnerHealth(ctx context.Context) ServiceHealth {
	if hs.runner == nil || !hs.runner.Configured() {
		return ServiceHealth{
			Status:  "not_configured",
			Message: "model runner base URL is not set; forecast and explain endpoints respond 503",
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := hs.runner.Ping(pingCtx); err != nil {
		hs.logger.WarnContext(ctx, "model runner health probe failed",
			slog.String("error", err.Error()))
		return ServiceHealth{
			Status:  "unreachable",
			Message: err.Error(),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "model runner is reachable",
	}
}
