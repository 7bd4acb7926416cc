// Package anomaly flags statistical outliers in a dated value series using
// z-scores against the series' own mean and population standard deviation.
// Detection is pure: no I/O, no logging, no state shared across calls.
package anomaly

import (
	"math"
	"time"
)

// DefaultThreshold is the z-score magnitude above which a point is flagged.
const DefaultThreshold = 3.0

// Method is the single detection method this package implements. Callers at
// the API boundary use it to reject requests for algorithms that do not
// exist here.
const Method = "zscore"

// ValuePoint is a single dated observation.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result is the scored counterpart of a ValuePoint. Score is the signed
// z-score and is retained for diagnostics even when the point is not
// anomalous.
type Result struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Score     float64   `json:"score"`
	IsAnomaly bool      `json:"is_anomaly"`
}

// Detect scores every point against the series mean in units of population
// standard deviation and flags those whose absolute score exceeds the
// threshold. Output preserves input order.
//
// An empty series yields an empty result. A zero-variance series (including
// a single point) yields all-zero scores and no flags rather than a division
// by zero. A threshold of zero or below is accepted and simply flags every
// point with a nonzero score.
func Detect(series []ValuePoint, threshold float64) []Result {
	results := make([]Result, 0, len(series))
	if len(series) == 0 {
		return results
	}

	mean, stddev := meanStddev(series)
	for _, vp := range series {
		var score float64
		if stddev > 0 {
			score = (vp.Value - mean) / stddev
		}
		results = append(results, Result{
			Date:      vp.Date,
			Value:     vp.Value,
			Score:     score,
			IsAnomaly: math.Abs(score) > threshold,
		})
	}
	return results
}

// Count returns how many results are flagged.
func Count(results []Result) int {
	n := 0
	for _, r := range results {
		if r.IsAnomaly {
			n++
		}
	}
	return n
}

// meanStddev computes the mean and population standard deviation in two
// passes; numerical stability at expected series sizes does not warrant a
// streaming variant.
func meanStddev(series []ValuePoint) (float64, float64) {
	n := float64(len(series))

	var sum float64
	for _, vp := range series {
		sum += vp.Value
	}
	mean := sum / n

	var squared float64
	for _, vp := range series {
		d := vp.Value - mean
		squared += d * d
	}
	return mean, math.Sqrt(squared / n)
}
