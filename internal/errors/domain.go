package errors

import (
	"errors"
	"net/http"

	"fincast/internal/attribution"
	"fincast/internal/projection"
)

// FromDomain translates typed errors raised by the projection and
// attribution cores into API errors with stable error codes. It returns
// nil when the error is not a recognized domain error; callers should
// fall back to a generic internal error in that case.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var freqErr *projection.UnsupportedFrequencyError
	if errors.As(err, &freqErr) {
		return NewWithDetails(
			http.StatusBadRequest,
			"UNSUPPORTED_FREQUENCY",
			freqErr.Error(),
			map[string]string{"frequency": string(freqErr.Frequency)},
		)
	}

	var rangeErr *projection.InvalidRangeError
	if errors.As(err, &rangeErr) {
		return NewWithDetails(
			http.StatusBadRequest,
			"INVALID_RANGE",
			rangeErr.Error(),
			map[string]string{
				"start": rangeErr.Start.Format(projection.DateLayout),
				"end":   rangeErr.End.Format(projection.DateLayout),
			},
		)
	}

	var eventErr *projection.ValidationError
	if errors.As(err, &eventErr) {
		return NewWithDetails(
			http.StatusBadRequest,
			"VALIDATION_ERROR",
			"Request validation failed",
			ValidationError{Field: eventErr.Field, Message: eventErr.Message},
		)
	}

	var topNErr *attribution.InvalidTopNError
	if errors.As(err, &topNErr) {
		return NewWithDetails(
			http.StatusBadRequest,
			"INVALID_TOP_N",
			topNErr.Error(),
			map[string]int{"top_n": topNErr.TopN},
		)
	}

	var scaleErr *attribution.UnknownScaleError
	if errors.As(err, &scaleErr) {
		return NewWithDetails(
			http.StatusBadRequest,
			"INVALID_PARAMETER",
			scaleErr.Error(),
			map[string]string{"scale": string(scaleErr.Scale)},
		)
	}

	return nil
}

// MapDomainError converts any error into an APIError, falling back to a
// wrapped internal error for unrecognized failures.
func MapDomainError(err error) *APIError {
	if apiErr := FromDomain(err); apiErr != nil {
		return apiErr
	}
	return NewInternalError(err.Error())
}
