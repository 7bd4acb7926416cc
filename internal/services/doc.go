// Package services implements the business logic layer between the HTTP
// handlers and the pure projection/anomaly/attribution cores, ensuring that
// boundary concerns (parsing, defaults, limits, upstream calls) stay out of
// the cores.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Cores stay pure; services own parsing, defaults, and I/O
//	4. Domain-focused methods that encapsulate business rules
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Wire-to-core conversion (ISO dates, DTOs)
//	- Default and limit application from configuration
//	- Bounded parallel projection across events
//	- Model-runner integration and error translation
//	- Cross-cutting concerns (logging, metrics)
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    runner *modelrunner.Client
//	    cfg    config.AnalyticsConfig
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(runner *modelrunner.Client, cfg config.AnalyticsConfig, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{
//	        runner: runner,
//	        cfg:    cfg,
//	        logger: logger,
//	    }
//	}
//
//	func (s *ServiceName) BusinessOperation(ctx context.Context, req *v1.Request) (*domain.Output, error) {
//	    // Convert and validate input
//	    input, err := convert(req)
//	    if err != nil {
//	        return nil, err
//	    }
//
//	    // Execute core logic
//	    result, err := core.Operation(input)
//	    if err != nil {
//	        return nil, fmt.Errorf("operation failed: %w", err)
//	    }
//
//	    return toDomain(result), nil
//	}
//
// # Available Services
//
// The package provides these core services:
//
//	- ForecastService: regressor projection and the integrated forecast flow
//	- AnalyticsService: anomaly detection, attribution ranking, explain flow
//	- HealthService: liveness, readiness, and version reporting
//
// # Error Handling
//
// Services return typed domain errors or API errors that handlers render
// directly:
//
//	- Core errors (UnsupportedFrequency, InvalidRange, InvalidTopN) pass
//	  through for translation to stable error codes
//	- Validation failures become field-level VALIDATION_ERROR responses
//	- Model-runner failures become 502/503 API errors
//
// # Testing
//
// Services are tested against fake upstreams:
//
//	server := httptest.NewServer(fakeModelRunner)
//	runner := modelrunner.New(config.ModelRunnerConfig{BaseURL: server.URL}, logger)
//	service := NewForecastService(runner, cfg, nil, logger)
package services
