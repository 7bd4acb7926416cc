package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"fincast/internal/config"
	apierrors "fincast/internal/errors"
	"fincast/internal/infrastructure"
	"fincast/internal/modelrunner"
	"fincast/internal/projection"
	v1 "fincast/pkg/contracts/api/v1"
	"fincast/pkg/contracts/domain"
)

// ForecastService expands event definitions into regressor matrices and
// drives the integrated forecast flow against the external model runner.
type ForecastService struct {
	runner    *modelrunner.Client
	analytics config.AnalyticsConfig
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewForecastService creates a forecast service. The metrics handle may be
// nil; recording helpers tolerate it.
func NewForecastService(runner *modelrunner.Client, analytics config.AnalyticsConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastService{
		runner:    runner,
		analytics: analytics,
		metrics:   metrics,
		logger:    logger,
	}
}

// BuildRegressors projects the requested events over the inclusive date
// range and returns the dense regressor table.
func (s *ForecastService) BuildRegressors(ctx context.Context, req *v1.RegressorsRequest) (*domain.RegressorTable, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	r, err := projection.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if err := s.checkRangeBudget(r); err != nil {
		return nil, err
	}

	mode, err := projection.ParseOneTimeMode(req.Mode)
	if err != nil {
		return nil, apierrors.ErrValidation("mode", err.Error())
	}

	events, err := eventsFromInputs(req.Events)
	if err != nil {
		return nil, err
	}

	matrix, err := s.projectMatrix(ctx, events, r, mode)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "regressor matrix assembled",
		slog.Int("events", len(events)),
		slog.Int("rows", matrix.NumRows()),
		slog.Int("columns", matrix.NumColumns()),
		slog.String("mode", mode.String()))

	return tableFromMatrix(r, matrix), nil
}

// Forecast builds the combined historical+future regressor matrix, splits it
// at the forecast origin, and obtains predictions from the model runner.
func (s *ForecastService) Forecast(ctx context.Context, req *v1.ForecastRequest) (*domain.ForecastResult, error) {
	if s.runner == nil || !s.runner.Configured() {
		return nil, apierrors.ErrModelRunnerNotConfigured
	}

	began := time.Now()

	histDates := make([]time.Time, len(req.History))
	for i, p := range req.History {
		d, err := parseDate(fmt.Sprintf("history[%d].date", i), p.Date)
		if err != nil {
			return nil, err
		}
		histDates[i] = projection.Day(d)
	}
	histStart := histDates[0]
	histEnd := histDates[len(histDates)-1]

	combined, err := projection.NewDateRange(histStart, histEnd.AddDate(0, 0, req.HorizonDays))
	if err != nil {
		return nil, err
	}
	if err := s.checkRangeBudget(combined); err != nil {
		return nil, err
	}

	mode, err := projection.ParseOneTimeMode(req.Mode)
	if err != nil {
		return nil, apierrors.ErrValidation("mode", err.Error())
	}

	events, err := eventsFromInputs(req.Events)
	if err != nil {
		return nil, err
	}

	matrix, err := s.projectMatrix(ctx, events, combined, mode)
	if err != nil {
		infrastructure.RecordForecastMetrics(ctx, s.metrics, len(events), req.HorizonDays, time.Since(began), err)
		return nil, err
	}

	mrReq := buildModelRequest(req.History, histEnd, matrix)

	callStart := time.Now()
	resp, err := s.runner.Forecast(ctx, mrReq)
	infrastructure.RecordModelRunnerCall(ctx, s.metrics, "forecast", time.Since(callStart), err)
	if err != nil {
		infrastructure.RecordForecastMetrics(ctx, s.metrics, len(events), req.HorizonDays, time.Since(began), err)
		s.logger.ErrorContext(ctx, "model runner forecast failed",
			slog.Int("history_rows", len(req.History)),
			slog.Int("horizon_days", req.HorizonDays),
			slog.String("error", err.Error()))
		return nil, mapRunnerError(err)
	}

	points := make([]domain.ForecastPoint, len(resp.Points))
	for i, p := range resp.Points {
		points[i] = domain.ForecastPoint{
			Date:      p.Date,
			Yhat:      p.Yhat,
			YhatLower: p.YhatLower,
			YhatUpper: p.YhatUpper,
		}
	}

	result := &domain.ForecastResult{
		Model:            resp.Model,
		ForecastOrigin:   histEnd.AddDate(0, 0, 1).Format(projection.DateLayout),
		HorizonDays:      req.HorizonDays,
		RegressorColumns: matrix.Columns(),
		Points:           points,
	}

	infrastructure.RecordForecastMetrics(ctx, s.metrics, len(events), req.HorizonDays, time.Since(began), nil)
	s.logger.InfoContext(ctx, "forecast completed",
		slog.Int("history_rows", len(req.History)),
		slog.Int("horizon_days", req.HorizonDays),
		slog.Int("regressor_columns", matrix.NumColumns()),
		slog.Int("points", len(points)),
		slog.Duration("duration", time.Since(began)))

	return result, nil
}

// projectMatrix expands events over the range in parallel, each into its
// pre-assigned slot, then merges sequentially in input order so column order
// stays deterministic.
func (s *ForecastService) projectMatrix(ctx context.Context, events []projection.Event, r projection.DateRange, mode projection.OneTimeMode) (*projection.RegressorMatrix, error) {
	projector := projection.NewProjector()
	if err := projector.SetOneTimeMode(mode); err != nil {
		return nil, apierrors.ErrValidation("mode", err.Error())
	}

	start := time.Now()
	series := make([]projection.ContributionSeries, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel())
	for i, event := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := projector.Project(event, r)
			if err != nil {
				return fmt.Errorf("project event %q: %w", event.Name, err)
			}
			series[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matrix := projection.NewRegressorMatrix(r)
	for _, cs := range series {
		matrix.Merge(cs)
	}

	infrastructure.RecordProjectionMetrics(ctx, s.metrics, len(events), matrix.NumColumns(), time.Since(start))
	return matrix, nil
}

// checkRangeBudget rejects ranges wider than the configured day limit.
func (s *ForecastService) checkRangeBudget(r projection.DateRange) error {
	if s.analytics.MaxRangeDays > 0 && r.Len() > s.analytics.MaxRangeDays {
		return apierrors.NewWithDetails(
			http.StatusBadRequest,
			"VALIDATION_ERROR",
			fmt.Sprintf("date range spans %d days, exceeding the %d day limit", r.Len(), s.analytics.MaxRangeDays),
			map[string]int{"days": r.Len(), "max_days": s.analytics.MaxRangeDays},
		)
	}
	return nil
}

func (s *ForecastService) maxParallel() int {
	if s.analytics.MaxParallel > 0 {
		return s.analytics.MaxParallel
	}
	return runtime.NumCPU()
}

// buildModelRequest splits the matrix at the forecast origin: history rows
// carry observed values plus that date's regressors, future rows carry
// regressors only.
func buildModelRequest(history []v1.SeriesPointInput, histEnd time.Time, matrix *projection.RegressorMatrix) *modelrunner.ForecastRequest {
	rowIndex := make(map[string]int, matrix.NumRows())
	for i, d := range matrix.Dates() {
		rowIndex[d.Format(projection.DateLayout)] = i
	}

	columns := matrix.Columns()
	regressorsAt := func(date string) map[string]float64 {
		if len(columns) == 0 {
			return nil
		}
		i, ok := rowIndex[date]
		if !ok {
			return nil
		}
		return matrix.Row(i)
	}

	req := &modelrunner.ForecastRequest{
		History:          make([]modelrunner.HistoryRow, len(history)),
		RegressorColumns: columns,
	}
	for i, p := range history {
		req.History[i] = modelrunner.HistoryRow{
			Date:       p.Date,
			Value:      p.Value,
			Regressors: regressorsAt(p.Date),
		}
	}
	for _, d := range matrix.Dates() {
		if !d.After(histEnd) {
			continue
		}
		date := d.Format(projection.DateLayout)
		req.Future = append(req.Future, modelrunner.FutureRow{
			Date:       date,
			Regressors: regressorsAt(date),
		})
	}
	return req
}
