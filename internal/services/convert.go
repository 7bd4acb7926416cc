package services

import (
	"fmt"
	"time"

	apierrors "fincast/internal/errors"
	"fincast/internal/projection"
	v1 "fincast/pkg/contracts/api/v1"
	"fincast/pkg/contracts/domain"
)

// parseDate parses an ISO-8601 wire date, reporting a field-level validation
// error on failure.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(projection.DateLayout, value)
	if err != nil {
		return time.Time{}, apierrors.ErrValidation(field,
			fmt.Sprintf("invalid date %q: must be YYYY-MM-DD", value))
	}
	return t, nil
}

// eventsFromInputs converts request event definitions into projection events.
// Frequency strings pass through unchecked; the projection core rejects
// unsupported values with their own error code.
func eventsFromInputs(inputs []v1.EventInput) ([]projection.Event, error) {
	events := make([]projection.Event, 0, len(inputs))
	for i, in := range inputs {
		start, err := parseDate(fmt.Sprintf("events[%d].start_date", i), in.StartDate)
		if err != nil {
			return nil, err
		}
		events = append(events, projection.Event{
			Name:      in.Name,
			Amount:    in.Amount,
			StartDate: start,
			Frequency: projection.Frequency(in.Frequency),
		})
	}
	return events, nil
}

// tableFromMatrix converts a projected matrix into its wire representation
// with ISO dates and per-row value maps.
func tableFromMatrix(r projection.DateRange, m *projection.RegressorMatrix) *domain.RegressorTable {
	r = r.Normalize()
	rows := make([]domain.MatrixRow, m.NumRows())
	for i, d := range m.Dates() {
		rows[i] = domain.MatrixRow{
			Date:   d.Format(projection.DateLayout),
			Values: m.Row(i),
		}
	}
	return &domain.RegressorTable{
		StartDate: r.Start.Format(projection.DateLayout),
		EndDate:   r.End.Format(projection.DateLayout),
		Columns:   append([]string(nil), m.Columns()...),
		Rows:      rows,
	}
}
