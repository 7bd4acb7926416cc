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

// ForecastHandler handles regressor-matrix and forecast HTTP requests
type ForecastHandler struct {
	service      *services.ForecastService
	validator    *validation.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service *services.ForecastService, validator *validation.RequestValidator, logger *slog.Logger) *ForecastHandler {
	return &ForecastHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "forecast")),
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the regressor and forecast routes
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Post("/regressors", h.BuildRegressors)
	r.Post("/forecast", h.Forecast)
}

// BuildRegressors handles POST /api/regressors
func (h *ForecastHandler) BuildRegressors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req v1.RegressorsRequest
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

	h.logger.InfoContext(ctx, "building regressor matrix",
		slog.String("request_id", reqID),
		slog.Int("events", len(req.Events)),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate),
	)

	table, err := h.service.BuildRegressors(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build regressor matrix",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, table)
}

// Forecast handles POST /api/forecast
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req v1.ForecastRequest
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

	h.logger.InfoContext(ctx, "requesting forecast",
		slog.String("request_id", reqID),
		slog.Int("history_points", len(req.History)),
		slog.Int("events", len(req.Events)),
		slog.Int("horizon_days", req.HorizonDays),
	)

	result, err := h.service.Forecast(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "forecast failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}
