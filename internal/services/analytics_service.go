package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fincast/internal/anomaly"
	"fincast/internal/attribution"
	"fincast/internal/config"
	apierrors "fincast/internal/errors"
	"fincast/internal/infrastructure"
	"fincast/internal/modelrunner"
	"fincast/internal/projection"
	v1 "fincast/pkg/contracts/api/v1"
	"fincast/pkg/contracts/domain"
)

// AnalyticsService wraps the anomaly detection and attribution ranking cores
// for the HTTP boundary and drives the explain flow against the external
// explainer.
type AnalyticsService struct {
	runner  *modelrunner.Client
	cfg     config.AnalyticsConfig
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewAnalyticsService creates an analytics service. The metrics handle may
// be nil; recording helpers tolerate it.
func NewAnalyticsService(runner *modelrunner.Client, cfg config.AnalyticsConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		runner:  runner,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// DetectAnomalies scores the request series with z-scores and flags points
// whose absolute score exceeds the threshold. An omitted threshold falls
// back to the configured default; an explicit zero or negative threshold is
// honored as given.
func (s *AnalyticsService) DetectAnomalies(ctx context.Context, req *v1.AnomaliesRequest) (*domain.AnomalyReport, error) {
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method != "" && method != anomaly.Method {
		return nil, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"UNSUPPORTED_METHOD",
			fmt.Sprintf("detection method %q is not supported", req.Method),
			map[string]string{"method": req.Method, "supported": anomaly.Method},
		)
	}

	threshold := s.cfg.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	series := make([]anomaly.ValuePoint, 0, len(req.Series))
	for i, p := range req.Series {
		d, err := parseDate(fmt.Sprintf("series[%d].date", i), p.Date)
		if err != nil {
			return nil, err
		}
		series = append(series, anomaly.ValuePoint{Date: d, Value: p.Value})
	}

	results := anomaly.Detect(series, threshold)
	flagged := anomaly.Count(results)
	infrastructure.RecordAnomalyMetrics(ctx, s.metrics, len(results), flagged)

	points := make([]domain.AnomalyPoint, len(results))
	for i, r := range results {
		points[i] = domain.AnomalyPoint{
			Date:      r.Date.Format(projection.DateLayout),
			Value:     r.Value,
			Score:     r.Score,
			IsAnomaly: r.IsAnomaly,
		}
	}

	s.logger.InfoContext(ctx, "anomaly detection completed",
		slog.Int("points", len(points)),
		slog.Int("flagged", flagged),
		slog.Float64("threshold", threshold))

	return &domain.AnomalyReport{
		Method:    anomaly.Method,
		Threshold: threshold,
		Total:     len(points),
		Flagged:   flagged,
		Results:   points,
	}, nil
}

// RankAttributions reduces the raw importance vector to a ranked, normalized
// top-N list. A zero top_n means the configured default; negative values
// surface the core's INVALID_TOP_N error.
func (s *AnalyticsService) RankAttributions(ctx context.Context, req *v1.AttributionsRequest) (*domain.Attribution, error) {
	topN := req.TopN
	if topN == 0 {
		topN = s.cfg.DefaultTopN
	}
	scale := attribution.Scale(req.Scale)

	scores := make([]attribution.FeatureScore, len(req.Scores))
	for i, fs := range req.Scores {
		scores[i] = attribution.FeatureScore{Name: fs.Name, Importance: fs.Importance}
	}

	ranked, err := attribution.Rank(scores, topN, scale)
	if err != nil {
		return nil, err
	}
	infrastructure.RecordAttributionMetrics(ctx, s.metrics, scale.String(), len(ranked))

	s.logger.InfoContext(ctx, "attribution ranking completed",
		slog.Int("scores", len(scores)),
		slog.Int("ranked", len(ranked)),
		slog.String("scale", scale.String()))

	return &domain.Attribution{
		Scale:    scale.String(),
		TopN:     topN,
		Features: rankedToDomain(ranked),
	}, nil
}

// Explain fetches the entity's raw per-feature importances from the external
// explainer and reduces them to a ranked top-N list.
func (s *AnalyticsService) Explain(ctx context.Context, req *v1.ExplainRequest) (*domain.Explanation, error) {
	if s.runner == nil || !s.runner.Configured() {
		return nil, apierrors.ErrModelRunnerNotConfigured
	}

	callStart := time.Now()
	resp, err := s.runner.Explain(ctx, &modelrunner.ExplainRequest{Entity: req.Entity})
	infrastructure.RecordModelRunnerCall(ctx, s.metrics, "explain", time.Since(callStart), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "model runner explain failed",
			slog.String("entity", req.Entity),
			slog.String("error", err.Error()))
		return nil, mapRunnerError(err)
	}

	topN := req.TopN
	if topN == 0 {
		topN = s.cfg.DefaultTopN
	}
	scale := attribution.Scale(req.Scale)

	scores := make([]attribution.FeatureScore, len(resp.Features))
	for i, f := range resp.Features {
		scores[i] = attribution.FeatureScore{Name: f.Name, Importance: f.Value}
	}

	ranked, err := attribution.Rank(scores, topN, scale)
	if err != nil {
		return nil, err
	}
	infrastructure.RecordAttributionMetrics(ctx, s.metrics, scale.String(), len(ranked))

	s.logger.InfoContext(ctx, "explain flow completed",
		slog.String("entity", req.Entity),
		slog.Int("raw_features", len(scores)),
		slog.Int("top_features", len(ranked)))

	return &domain.Explanation{
		Entity:      resp.Entity,
		Scale:       scale.String(),
		TopFeatures: rankedToDomain(ranked),
	}, nil
}

func rankedToDomain(ranked []attribution.RankedFeature) []domain.RankedFeature {
	out := make([]domain.RankedFeature, len(ranked))
	for i, rf := range ranked {
		out[i] = domain.RankedFeature{Name: rf.Name, Importance: rf.Importance}
	}
	return out
}
