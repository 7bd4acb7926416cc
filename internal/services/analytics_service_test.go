package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/attribution"
	apierrors "fincast/internal/errors"
	"fincast/internal/modelrunner"
	"fincast/internal/shared/testutil"
	v1 "fincast/pkg/contracts/api/v1"
)

func newAnalyticsService(t *testing.T, runner *modelrunner.Client) *AnalyticsService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewAnalyticsService(runner, testAnalyticsConfig(), nil, logger)
}

func seriesInputs(values ...float64) []v1.SeriesPointInput {
	points := make([]v1.SeriesPointInput, len(values))
	for i, v := range values {
		points[i] = v1.SeriesPointInput{
			Date:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Value: v,
		}
	}
	return points
}

func floatPtr(v float64) *float64 { return &v }

func TestAnalyticsService_DetectAnomalies(t *testing.T) {
	svc := newAnalyticsService(t, nil)
	ctx := context.Background()

	t.Run("config default threshold applies when omitted", func(t *testing.T) {
		// 15 flat points and one spike: z = sqrt(15), above the 3.0 default.
		values := make([]float64, 16)
		for i := range values {
			values[i] = 10
		}
		values[15] = 100

		report, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series: seriesInputs(values...),
		})
		require.NoError(t, err)

		assert.Equal(t, "zscore", report.Method)
		assert.InDelta(t, 3.0, report.Threshold, 0.001)
		assert.Equal(t, 16, report.Total)
		assert.Equal(t, 1, report.Flagged)
		require.Len(t, report.Results, 16)
		assert.False(t, report.Results[0].IsAnomaly)
		assert.True(t, report.Results[15].IsAnomaly)
		assert.Equal(t, "2023-01-16", report.Results[15].Date)
		assert.InDelta(t, 100, report.Results[15].Value, 0.001)
	})

	t.Run("explicit threshold overrides the default", func(t *testing.T) {
		report, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series:    seriesInputs(10, 10, 10, 10, 100),
			Threshold: floatPtr(1.9),
		})
		require.NoError(t, err)

		assert.InDelta(t, 1.9, report.Threshold, 0.001)
		assert.Equal(t, 1, report.Flagged)
		assert.True(t, report.Results[4].IsAnomaly)
		assert.InDelta(t, 2.0, report.Results[4].Score, 0.001)
	})

	t.Run("explicit zero threshold flags every nonzero score", func(t *testing.T) {
		report, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series:    seriesInputs(1, 2, 3),
			Threshold: floatPtr(0),
		})
		require.NoError(t, err)

		assert.Zero(t, report.Threshold)
		assert.Equal(t, 2, report.Flagged)
		// The middle point sits exactly on the mean and stays unflagged.
		assert.False(t, report.Results[1].IsAnomaly)
	})

	t.Run("method name is case insensitive", func(t *testing.T) {
		report, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series: seriesInputs(1, 2, 3),
			Method: "  ZScore ",
		})
		require.NoError(t, err)
		assert.Equal(t, "zscore", report.Method)
	})

	t.Run("unsupported method is rejected", func(t *testing.T) {
		_, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series: seriesInputs(1, 2, 3),
			Method: "iqr",
		})

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "UNSUPPORTED_METHOD", apiErr.ErrorCode)
		assert.Contains(t, apiErr.Message, "iqr")
	})

	t.Run("constant series flags nothing", func(t *testing.T) {
		report, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series: seriesInputs(5, 5, 5),
		})
		require.NoError(t, err)

		assert.Zero(t, report.Flagged)
		for _, r := range report.Results {
			assert.Zero(t, r.Score)
		}
	})

	t.Run("malformed date reports the field", func(t *testing.T) {
		_, err := svc.DetectAnomalies(ctx, &v1.AnomaliesRequest{
			Series: []v1.SeriesPointInput{{Date: "Jan 1 2023", Value: 10}},
		})

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.ErrorCode)
	})
}

func TestAnalyticsService_RankAttributions(t *testing.T) {
	svc := newAnalyticsService(t, nil)
	ctx := context.Background()

	scores := []v1.FeatureScoreInput{
		{Name: "spring_sale", Importance: 10},
		{Name: "price_drop", Importance: 6},
		{Name: "holiday", Importance: 4},
	}

	t.Run("unit scale sums to one over the taken set", func(t *testing.T) {
		result, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: scores,
			TopN:   2,
		})
		require.NoError(t, err)

		assert.Equal(t, "unit", result.Scale)
		assert.Equal(t, 2, result.TopN)
		require.Len(t, result.Features, 2)
		assert.Equal(t, "spring_sale", result.Features[0].Name)
		assert.InDelta(t, 0.625, result.Features[0].Importance, 0.001)
		assert.Equal(t, "price_drop", result.Features[1].Name)
		assert.InDelta(t, 0.375, result.Features[1].Importance, 0.001)
	})

	t.Run("percent scale pins the top feature at 100", func(t *testing.T) {
		result, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: scores,
			TopN:   3,
			Scale:  "percent",
		})
		require.NoError(t, err)

		assert.Equal(t, "percent", result.Scale)
		require.Len(t, result.Features, 3)
		assert.InDelta(t, 100, result.Features[0].Importance, 0.001)
		assert.InDelta(t, 60, result.Features[1].Importance, 0.001)
		assert.InDelta(t, 40, result.Features[2].Importance, 0.001)
	})

	t.Run("omitted top_n falls back to the config default", func(t *testing.T) {
		result, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: scores,
		})
		require.NoError(t, err)

		assert.Equal(t, 5, result.TopN)
		// Clipped to the input size, never padded.
		assert.Len(t, result.Features, 3)
	})

	t.Run("negative top_n is rejected", func(t *testing.T) {
		_, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: scores,
			TopN:   -1,
		})

		var topNErr *attribution.InvalidTopNError
		require.ErrorAs(t, err, &topNErr)
		assert.Equal(t, -1, topNErr.TopN)
	})

	t.Run("unknown scale is rejected", func(t *testing.T) {
		_, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: scores,
			TopN:   2,
			Scale:  "logarithmic",
		})

		var scaleErr *attribution.UnknownScaleError
		require.ErrorAs(t, err, &scaleErr)
	})

	t.Run("empty scores rank to an empty list", func(t *testing.T) {
		result, err := svc.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: []v1.FeatureScoreInput{},
			TopN:   3,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Features)
	})
}

func TestAnalyticsService_Explain(t *testing.T) {
	t.Run("ranks upstream importances", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/explain", r.URL.Path)

			var req modelrunner.ExplainRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "campaign_a", req.Entity)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(modelrunner.ExplainResponse{
				Entity: "campaign_a",
				Features: []modelrunner.FeatureImportance{
					{Name: "price_drop", Value: 2},
					{Name: "spring_sale", Value: 8},
					{Name: "holiday", Value: 1},
				},
			})
		}))
		defer server.Close()

		svc := newAnalyticsService(t, newRunner(t, server.URL))
		result, err := svc.Explain(context.Background(), &v1.ExplainRequest{
			Entity: "campaign_a",
			TopN:   2,
		})
		require.NoError(t, err)

		assert.Equal(t, "campaign_a", result.Entity)
		assert.Equal(t, "unit", result.Scale)
		require.Len(t, result.TopFeatures, 2)
		assert.Equal(t, "spring_sale", result.TopFeatures[0].Name)
		assert.InDelta(t, 0.8, result.TopFeatures[0].Importance, 0.001)
		assert.Equal(t, "price_drop", result.TopFeatures[1].Name)
		assert.InDelta(t, 0.2, result.TopFeatures[1].Importance, 0.001)
	})

	t.Run("unconfigured runner responds 503", func(t *testing.T) {
		svc := newAnalyticsService(t, newRunner(t, ""))
		_, err := svc.Explain(context.Background(), &v1.ExplainRequest{Entity: "campaign_a"})

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "MODEL_RUNNER_NOT_CONFIGURED", apiErr.ErrorCode)
	})

	t.Run("upstream failure responds 502", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		svc := newAnalyticsService(t, newRunner(t, server.URL))
		_, err := svc.Explain(context.Background(), &v1.ExplainRequest{Entity: "campaign_a"})

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, "MODEL_RUNNER_UNAVAILABLE", apiErr.ErrorCode)
	})
}
