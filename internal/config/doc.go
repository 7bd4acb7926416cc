// Package config provides centralized configuration management for fincast.
// It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values throughout
// the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FINCAST_* for namespacing:
//
//	FINCAST_SERVER_PORT=8080
//	FINCAST_LOGGING_LEVEL=info
//	FINCAST_MODEL_RUNNER_BASE_URL=http://model-runner:9000
//	FINCAST_ANALYTICS_DEFAULT_THRESHOLD=3.0
//
// FINCAST_CONFIG overrides the config file location; otherwise config.yaml
// and configs/config.yaml are probed.
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Values are within acceptable ranges
//	- The model-runner base URL, when set, is a valid http(s) URL
//	- Logging format and output fall back to supported values
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For testing, config.Default() returns a configuration with sensible
// defaults that does not require environment variables or files.
package config
