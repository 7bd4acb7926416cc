package domain

// ForecastPoint is a single predicted value with its uncertainty band, as
// returned by the external forecasting model.
type ForecastPoint struct {
	Date      string  `json:"date"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

// ForecastResult is the integrated forecast output: the model's predictions
// for the future window plus the regressor columns that were supplied to it.
type ForecastResult struct {
	Model            string          `json:"model,omitempty"`
	ForecastOrigin   string          `json:"forecast_origin"`
	HorizonDays      int             `json:"horizon_days"`
	RegressorColumns []string        `json:"regressor_columns"`
	Points           []ForecastPoint `json:"points"`
}
