// Package shared provides common utilities and test helpers used across the
// FinCast codebase. It serves as a central location for functionality that
// doesn't belong to any specific domain or architectural layer.
//
// # Structure
//
// - testutil: testing utilities for asserting on structured slog output
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helpers with no domain-specific logic
//
// It should NOT contain business logic, external dependencies beyond the
// standard library, or circular dependencies with other internal packages.
package shared
