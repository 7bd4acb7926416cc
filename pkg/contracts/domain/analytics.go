package domain

// AnomalyPoint is the scored counterpart of a series point. Score is the
// signed z-score against the series mean and is retained even when the point
// is not flagged.
type AnomalyPoint struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Score     float64 `json:"score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// AnomalyReport is the full detection output for one series.
type AnomalyReport struct {
	Method    string         `json:"method"`
	Threshold float64        `json:"threshold"`
	Total     int            `json:"total"`
	Flagged   int            `json:"flagged"`
	Results   []AnomalyPoint `json:"results"`
}

// FeatureScore is a single feature's raw importance as produced by an
// external explainability computation.
type FeatureScore struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// RankedFeature is a feature after ranking and normalization: 0-1 under the
// unit scale, 0-100 under the percent scale. List order is the contract.
type RankedFeature struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// Attribution is the ranked, normalized top-N reduction of a raw importance
// vector.
type Attribution struct {
	Scale    string          `json:"scale"`
	TopN     int             `json:"top_n"`
	Features []RankedFeature `json:"features"`
}

// Explanation is the per-entity output of the explain flow: raw importances
// fetched from the external explainer, then ranked and normalized.
type Explanation struct {
	Entity      string          `json:"entity"`
	Scale       string          `json:"scale"`
	TopFeatures []RankedFeature `json:"top_features"`
}
