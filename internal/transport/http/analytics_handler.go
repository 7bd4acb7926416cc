package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "fincast/internal/errors"
	"fincast/internal/services"
	"fincast/internal/validation"
	v1 "fincast/pkg/contracts/api/v1"
)

// AnalyticsHandler handles anomaly-detection and attribution HTTP requests
type AnalyticsHandler struct {
	service      *services.AnalyticsService
	validator    *validation.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *services.AnalyticsService, validator *validation.RequestValidator, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "analytics")),
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/anomalies", h.DetectAnomalies)
		r.Post("/attributions", h.RankAttributions)
		r.Post("/explain", h.Explain)
	})
}

// DetectAnomalies handles POST /api/analytics/anomalies
func (h *AnalyticsHandler) DetectAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req v1.AnomaliesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "detecting anomalies",
		slog.String("request_id", reqID),
		slog.Int("points", len(req.Series)),
	)

	report, err := h.service.DetectAnomalies(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "anomaly detection failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// RankAttributions handles POST /api/analytics/attributions
func (h *AnalyticsHandler) RankAttributions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req v1.AttributionsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "ranking attributions",
		slog.String("request_id", reqID),
		slog.Int("scores", len(req.Scores)),
		slog.Int("top_n", req.TopN),
	)

	result, err := h.service.RankAttributions(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "attribution ranking failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// Explain handles POST /api/analytics/explain
func (h *AnalyticsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req v1.ExplainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "explaining entity",
		slog.String("request_id", reqID),
		slog.String("entity", req.Entity),
	)

	result, err := h.service.Explain(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "explanation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}
