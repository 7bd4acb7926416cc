package projection

import (
	"fmt"
	"time"
)

// OneTimeMode selects how one_time events contribute over a range.
type OneTimeMode int

const (
	// StepOneTime carries the amount forward from the start date through the
	// end of the range. This matches the regressor convention used by the
	// forecast merge logic and is the default.
	StepOneTime OneTimeMode = iota
	// ImpulseOneTime books the amount on the start date only.
	ImpulseOneTime
)

// String returns a readable name for the mode.
func (m OneTimeMode) String() string {
	switch m {
	case StepOneTime:
		return "step"
	case ImpulseOneTime:
		return "impulse"
	default:
		return "unknown"
	}
}

// ParseOneTimeMode maps the wire names "step" and "impulse" to a mode.
func ParseOneTimeMode(s string) (OneTimeMode, error) {
	switch s {
	case "", "step":
		return StepOneTime, nil
	case "impulse":
		return ImpulseOneTime, nil
	default:
		return StepOneTime, fmt.Errorf("unknown one-time mode %q", s)
	}
}

// Projector expands event definitions into calendar-aligned contribution
// series. A zero-value Projector is not usable; construct with NewProjector.
// Projectors hold no per-call state and are safe for concurrent use.
type Projector struct {
	oneTimeMode OneTimeMode
}

// NewProjector creates a projector with the step convention for one_time
// events.
func NewProjector() *Projector {
	return &Projector{oneTimeMode: StepOneTime}
}

// SetOneTimeMode overrides the one_time contribution convention.
func (p *Projector) SetOneTimeMode(mode OneTimeMode) error {
	if mode != StepOneTime && mode != ImpulseOneTime {
		return fmt.Errorf("unknown one-time mode %d", mode)
	}
	p.oneTimeMode = mode
	return nil
}

// OneTimeModeValue returns the configured one_time convention.
func (p *Projector) OneTimeModeValue() OneTimeMode {
	return p.oneTimeMode
}

// Project expands a single event over the range into a dense series with one
// value per calendar day. A start date after the range end yields an all-zero
// series; an unrecognized frequency is rejected with an
// UnsupportedFrequencyError.
func (p *Projector) Project(event Event, r DateRange) (ContributionSeries, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return ContributionSeries{}, err
	}
	if err := validateEvent(event); err != nil {
		return ContributionSeries{}, err
	}

	days := r.Days()
	values := make([]float64, len(days))
	start := Day(event.StartDate)

	switch event.Frequency {
	case OneTime:
		p.projectOneTime(days, start, event.Amount, values)
	case Monthly:
		projectBuckets(days, start, event.Amount, values, monthIndex)
	case Quarterly:
		projectBuckets(days, start, event.Amount, values, quarterIndex)
	}

	return ContributionSeries{
		Name:   event.Column(),
		Dates:  days,
		Values: values,
	}, nil
}

// ProjectAll expands every event over the range and unions the results into
// a RegressorMatrix. Events that sanitize to the same column name are summed
// pointwise under that column. The first invalid event aborts the merge.
func (p *Projector) ProjectAll(events []Event, r DateRange) (*RegressorMatrix, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	matrix := NewRegressorMatrix(r)
	for _, event := range events {
		series, err := p.Project(event, r)
		if err != nil {
			return nil, fmt.Errorf("project event %q: %w", event.Name, err)
		}
		matrix.Merge(series)
	}
	return matrix, nil
}

// projectOneTime applies the configured one_time convention.
func (p *Projector) projectOneTime(days []time.Time, start time.Time, amount float64, values []float64) {
	for i, d := range days {
		switch p.oneTimeMode {
		case ImpulseOneTime:
			if d.Equal(start) {
				values[i] = amount
			}
		default:
			if !d.Before(start) {
				values[i] = amount
			}
		}
	}
}

// projectBuckets assigns the amount to every row date whose bucket is at or
// after the start date's bucket. Each bucket carries the amount exactly once;
// broadcasting it to all row dates of the bucket (including dates earlier in
// the bucket than the start day itself) keeps rows internally constant.
func projectBuckets(days []time.Time, start time.Time, amount float64, values []float64, bucket func(time.Time) int) {
	startBucket := bucket(start)
	for i, d := range days {
		if bucket(d) >= startBucket {
			values[i] = amount
		}
	}
}

// monthIndex returns a totally ordered index for the (year, month) bucket.
func monthIndex(t time.Time) int {
	y, m, _ := t.Date()
	return y*12 + int(m) - 1
}

// quarterIndex returns a totally ordered index for the (year, quarter)
// bucket. Quarters run Jan-Mar, Apr-Jun, Jul-Sep, Oct-Dec, so the bucket is
// derived from the event's own calendar month.
func quarterIndex(t time.Time) int {
	y, m, _ := t.Date()
	q := (int(m) + 2) / 3
	return y*4 + q - 1
}

// validateEvent rejects structurally malformed events with typed errors.
func validateEvent(event Event) error {
	if event.Name == "" {
		return &ValidationError{Field: "name", Message: "event name is required"}
	}
	if event.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Message: "event start date is required", Value: event.Name}
	}
	if !event.Frequency.IsValid() {
		return &UnsupportedFrequencyError{Frequency: event.Frequency}
	}
	return nil
}
