package modelrunner

// HistoryRow is one observed point in the fitting window, carrying the
// value and the regressor column values for that date.
type HistoryRow struct {
	Date       string             `json:"date"`
	Value      float64            `json:"value"`
	Regressors map[string]float64 `json:"regressors,omitempty"`
}

// FutureRow is one date in the forecast window. Only regressor values are
// known ahead of time.
type FutureRow struct {
	Date       string             `json:"date"`
	Regressors map[string]float64 `json:"regressors,omitempty"`
}

// ForecastRequest is the payload sent to the model runner's forecast
// endpoint. RegressorColumns fixes the column order so the runner builds
// its design matrix deterministically.
type ForecastRequest struct {
	History          []HistoryRow `json:"history"`
	Future           []FutureRow  `json:"future"`
	RegressorColumns []string     `json:"regressor_columns,omitempty"`
}

// ForecastPoint is one predicted value with its uncertainty interval.
type ForecastPoint struct {
	Date      string  `json:"date"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

// ForecastResponse is the model runner's reply to a forecast request.
type ForecastResponse struct {
	Points []ForecastPoint `json:"points"`
	Model  string          `json:"model,omitempty"`
}

// ExplainRequest asks the model runner's explainability engine for raw
// per-feature importance values for an entity.
type ExplainRequest struct {
	Entity string `json:"entity"`
}

// FeatureImportance is one raw importance value, typically the mean
// absolute attribution across a sample batch. Order is preserved from the
// runner's reply so downstream ranking stays deterministic.
type FeatureImportance struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ExplainResponse is the explainability engine's reply.
type ExplainResponse struct {
	Entity   string              `json:"entity"`
	Features []FeatureImportance `json:"features"`
}
