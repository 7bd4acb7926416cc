package config

import "time"

// Application constants
const (
	AppName    = "fincast"
	AppVersion = "1.0.0"

	// Environment variable namespace (FINCAST_SERVER_PORT, ...)
	EnvPrefix = "FINCAST"
)

// Analytics defaults, overridable through AnalyticsConfig
const (
	// DefaultAnomalyThreshold is the z-score magnitude above which a
	// point is flagged when the request does not carry a threshold.
	DefaultAnomalyThreshold = 3.0

	// DefaultAttributionTopN is the number of ranked drivers returned
	// when the request does not carry top_n.
	DefaultAttributionTopN = 5

	// DefaultMaxRangeDays caps the projection range length (~10 years).
	DefaultMaxRangeDays = 3660

	// DefaultProjectionParallelism bounds concurrent per-event
	// projections when assembling a regressor matrix.
	DefaultProjectionParallelism = 8
)

// Model-runner client defaults
const (
	DefaultModelRunnerTimeout = 30 * time.Second
	DefaultModelRunnerRetries = 3
)

// API endpoints (internal)
const (
	APIBasePath     = "/api"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)
