// Package api contains API contract definitions for the FinCast service.
// Version v1 represents the current stable API version.
package api

// Common input units

// EventInput is a scheduled event definition in a request. The frequency tag
// is checked by the projection core so unsupported values surface with their
// own error code rather than a generic validation failure.
type EventInput struct {
	Name      string  `json:"name" validate:"required"`
	Amount    float64 `json:"amount"`
	StartDate string  `json:"start_date" validate:"required,iso8601"`
	Frequency string  `json:"frequency" validate:"required"`
}

// SeriesPointInput is a dated observation in a request series.
type SeriesPointInput struct {
	Date  string  `json:"date" validate:"required,iso8601"`
	Value float64 `json:"value"`
}

// FeatureScoreInput is a raw feature importance in a request.
type FeatureScoreInput struct {
	Name       string  `json:"name" validate:"required"`
	Importance float64 `json:"importance"`
}

// Projection API Requests

// RegressorsRequest asks for a pure projection: events expanded over an
// inclusive date range into a dense regressor table. Range ordering is
// checked by the projection core, not by struct tags, so a reversed range
// reports INVALID_RANGE.
type RegressorsRequest struct {
	Events    []EventInput `json:"events" validate:"required,min=1,dive"`
	StartDate string       `json:"start_date" validate:"required,iso8601"`
	EndDate   string       `json:"end_date" validate:"required,iso8601"`
	Mode      string       `json:"mode,omitempty" validate:"omitempty,oneof=step impulse"`
}

// Forecast API Requests

// ForecastRequest asks for an integrated forecast: the history series and
// event definitions are expanded into a combined historical+future regressor
// matrix, split at the forecast origin, and sent to the external model
// runner.
type ForecastRequest struct {
	History     []SeriesPointInput `json:"history" validate:"required,min=2,dive"`
	Events      []EventInput       `json:"events,omitempty" validate:"omitempty,dive"`
	HorizonDays int                `json:"horizon_days" validate:"required,gt=0"`
	Mode        string             `json:"mode,omitempty" validate:"omitempty,oneof=step impulse"`
}

// Analytics API Requests

// AnomaliesRequest asks for z-score outlier detection over a value series.
// Threshold is a pointer so an explicit zero or negative threshold (flag
// everything with a nonzero score) is distinguishable from an omitted one.
// Method defaults to zscore; anything else is rejected by the service with
// UNSUPPORTED_METHOD.
type AnomaliesRequest struct {
	Series    []SeriesPointInput `json:"series" validate:"required,min=1,dive"`
	Threshold *float64           `json:"threshold,omitempty"`
	Method    string             `json:"method,omitempty"`
}

// AttributionsRequest asks for ranking and normalization of a raw importance
// vector. TopN of zero means the configured default; negative values are
// passed through so the ranking core reports INVALID_TOP_N. Scale is checked
// by the core so unknown values report INVALID_PARAMETER.
type AttributionsRequest struct {
	Scores []FeatureScoreInput `json:"scores" validate:"required,dive"`
	TopN   int                 `json:"top_n,omitempty"`
	Scale  string              `json:"scale,omitempty"`
}

// ExplainRequest asks for the explain flow: raw per-feature importances for
// the entity are fetched from the external explainer and reduced to a
// ranked top-N list.
type ExplainRequest struct {
	Entity string `json:"entity" validate:"required"`
	TopN   int    `json:"top_n,omitempty"`
	Scale  string `json:"scale,omitempty"`
}
