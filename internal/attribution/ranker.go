// Package attribution reduces a raw per-feature importance vector, as
// produced by an external explainability engine, into a normalized, ranked,
// top-N explanation. Ranking is pure and deterministic: ties keep their
// original input order.
package attribution

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTopN is the number of features returned when the caller does not
// ask for a specific count.
const DefaultTopN = 5

// Scale selects the normalization convention for ranked importances.
type Scale string

const (
	// ScaleUnit divides each taken importance by the sum of taken
	// importances, so the returned values sum to 1.0.
	ScaleUnit Scale = "unit"
	// ScalePercent divides each taken importance by the top entry's
	// importance and scales to 0-100, rounded to the nearest integer.
	ScalePercent Scale = "percent"
)

// IsValid reports whether the scale is a supported convention. The empty
// string is accepted as ScaleUnit.
func (s Scale) IsValid() bool {
	switch s {
	case ScaleUnit, ScalePercent, "":
		return true
	default:
		return false
	}
}

// String returns the wire representation of the scale.
func (s Scale) String() string {
	if s == "" {
		return string(ScaleUnit)
	}
	return string(s)
}

// FeatureScore is a single feature's raw importance, typically the mean
// absolute attribution across a sample batch. Importance is expected to be
// non-negative.
type FeatureScore struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// RankedFeature is a feature after ranking and normalization. Importance is
// 0-1 under ScaleUnit and 0-100 under ScalePercent.
type RankedFeature struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// InvalidTopNError reports a non-positive rank request.
type InvalidTopNError struct {
	TopN int
}

// Error implements the error interface.
func (e *InvalidTopNError) Error() string {
	return fmt.Sprintf("invalid top_n %d: must be positive", e.TopN)
}

// UnknownScaleError reports an unrecognized normalization convention.
type UnknownScaleError struct {
	Scale Scale
}

// Error implements the error interface.
func (e *UnknownScaleError) Error() string {
	return fmt.Sprintf("unknown scale %q", string(e.Scale))
}

// Rank stable-sorts scores by descending raw importance, takes the first
// topN, and normalizes per the requested scale. The input slice is never
// mutated. An empty input yields an empty result; topN larger than the input
// is clipped, never padded.
//
// If the taken importances sum (unit) or peak (percent) at zero, every
// returned importance is zero rather than NaN.
func Rank(scores []FeatureScore, topN int, scale Scale) ([]RankedFeature, error) {
	if topN <= 0 {
		return nil, &InvalidTopNError{TopN: topN}
	}
	if !scale.IsValid() {
		return nil, &UnknownScaleError{Scale: scale}
	}
	if scale == "" {
		scale = ScaleUnit
	}

	ranked := make([]RankedFeature, 0, min(topN, len(scores)))
	if len(scores) == 0 {
		return ranked, nil
	}

	ordered := make([]FeatureScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Importance > ordered[j].Importance
	})

	taken := ordered[:min(topN, len(ordered))]

	switch scale {
	case ScaleUnit:
		var total float64
		for _, fs := range taken {
			total += fs.Importance
		}
		for _, fs := range taken {
			var v float64
			if total > 0 {
				v = fs.Importance / total
			}
			ranked = append(ranked, RankedFeature{Name: fs.Name, Importance: v})
		}
	case ScalePercent:
		top := taken[0].Importance
		for _, fs := range taken {
			var v float64
			if top > 0 {
				v = math.Round(fs.Importance / top * 100)
			}
			ranked = append(ranked, RankedFeature{Name: fs.Name, Importance: v})
		}
	}

	return ranked, nil
}
