// Package projection expands sparse recurring-event definitions into dense,
// calendar-aligned contribution series suitable as regressors for time-series
// forecasting models.
//
// A scheduled financial event (rent, payroll, a quarterly tax payment) is
// known ahead of time and should explain variance in a cash-flow series
// rather than be rediscovered by the model. This package turns each event
// into a daily value column that covers an arbitrary date range spanning both
// the historical fitting window and the future forecast window, so the same
// definition feeds both sides of the forecast origin without double-counting
// or misalignment.
//
// # Components
//
//   - types.go: event, range, series and matrix value objects plus the
//     package's typed errors
//   - projector.go: the Projector and its per-frequency expansion rules
//
// # Recurrence semantics
//
// Contributions are keyed by calendar bucket, then broadcast to every row
// date inside the bucket:
//
//   - one_time: a step function. Every date on or after the event's start
//     date carries the amount, matching a balance-sheet-style regressor. An
//     impulse mode (amount on the start date only) is available via
//     SetOneTimeMode for callers that need a single-day spike.
//   - monthly: every (year, month) bucket at or after the start date's
//     bucket carries the amount exactly once; all row dates in a carrying
//     bucket receive it, including dates earlier in the month than the
//     event's start day.
//   - quarterly: as monthly with (year, quarter) buckets, quarter derived
//     from the event's own calendar month.
//
// # Merging
//
// ProjectAll unions per-event series into a RegressorMatrix with one row per
// date and one column per sanitized event name. Two events sanitizing to the
// same name are summed pointwise under that column; the collision is resolved
// by addition, never by overwrite.
//
// # Usage
//
//	r, err := projection.NewDateRange(start, end)
//	if err != nil {
//	    return err
//	}
//
//	p := projection.NewProjector()
//	matrix, err := p.ProjectAll(events, r)
//	if err != nil {
//	    return err
//	}
//
//	for i, date := range matrix.Dates() {
//	    _ = matrix.At(i, "rent")
//	    _ = date
//	}
//
// Projection is deterministic: identical inputs always produce an identical
// matrix, including column order. Project and ProjectAll perform no I/O and
// do not mutate the Projector, so a configured Projector is safe for
// concurrent use.
package projection
