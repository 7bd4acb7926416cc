package projection

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Frequency identifies how often an event contributes to a series.
type Frequency string

const (
	// OneTime events contribute from their start date forward (or on the
	// start date only, in impulse mode).
	OneTime Frequency = "one_time"
	// Monthly events contribute once per (year, month) bucket.
	Monthly Frequency = "monthly"
	// Quarterly events contribute once per (year, quarter) bucket.
	Quarterly Frequency = "quarterly"
)

// IsValid reports whether the frequency is a supported recurrence tag.
func (f Frequency) IsValid() bool {
	switch f {
	case OneTime, Monthly, Quarterly:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the frequency.
func (f Frequency) String() string {
	return string(f)
}

// Event defines a scheduled financial event to be projected as a regressor.
// Events are immutable value objects; Amount is in the input's native
// currency unit and StartDate may fall before, inside, or after the range
// the event is projected over.
type Event struct {
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	StartDate time.Time `json:"start_date"`
	Frequency Frequency `json:"frequency"`
}

// Column returns the sanitized column key the event contributes under.
func (e Event) Column() string {
	return SanitizeName(e.Name)
}

// IsValid reports whether the event carries the required fields.
func (e Event) IsValid() bool {
	return e.Name != "" && !e.StartDate.IsZero() && e.Frequency.IsValid()
}

// SanitizeName derives the stable column key for an event name: lowercase,
// with every space replaced by an underscore.
func SanitizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// Day truncates a timestamp to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive span of calendar days at daily granularity.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a normalized range, rejecting end-before-start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Normalize truncates both endpoints to their calendar days.
func (r DateRange) Normalize() DateRange {
	return DateRange{Start: Day(r.Start), End: Day(r.End)}
}

// Validate reports an InvalidRangeError when the end precedes the start.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Len returns the number of calendar days in the range, inclusive.
func (r DateRange) Len() int {
	n := r.Normalize()
	return int(n.End.Sub(n.Start).Hours()/24) + 1
}

// Days expands the range into its ordered sequence of calendar days.
func (r DateRange) Days() []time.Time {
	n := r.Normalize()
	days := make([]time.Time, 0, r.Len())
	for d := n.Start; !d.After(n.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ContributionSeries is one event's dense contribution over a date range:
// one value per day, zero where the event does not contribute. Name is the
// sanitized column key.
type ContributionSeries struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of points in the series.
func (s ContributionSeries) Len() int {
	return len(s.Values)
}

// RegressorMatrix is the union of contribution series over a shared date
// range: one row per calendar day, one column per sanitized event name,
// zero-filled where no event contributes. Column order is the order in which
// names first appeared, which keeps output deterministic for a given input
// order.
type RegressorMatrix struct {
	dates   []time.Time
	columns []string
	values  map[string][]float64
}

// NewRegressorMatrix returns an empty matrix covering every day of r.
func NewRegressorMatrix(r DateRange) *RegressorMatrix {
	return &RegressorMatrix{
		dates:  r.Days(),
		values: make(map[string][]float64),
	}
}

// Merge folds a contribution series into the matrix, summing pointwise when
// the column already exists. Series produced for the matrix's own range are
// always length-aligned. Merge is not safe for concurrent use; callers that
// project in parallel must merge sequentially.
func (m *RegressorMatrix) Merge(s ContributionSeries) {
	col, ok := m.values[s.Name]
	if !ok {
		col = make([]float64, len(m.dates))
		m.values[s.Name] = col
		m.columns = append(m.columns, s.Name)
	}
	for i := range s.Values {
		col[i] += s.Values[i]
	}
}

// Dates returns the row dates in order.
func (m *RegressorMatrix) Dates() []time.Time {
	return m.dates
}

// Columns returns the column names in first-appearance order.
func (m *RegressorMatrix) Columns() []string {
	return m.columns
}

// NumRows returns the number of date rows.
func (m *RegressorMatrix) NumRows() int {
	return len(m.dates)
}

// NumColumns returns the number of event columns.
func (m *RegressorMatrix) NumColumns() int {
	return len(m.columns)
}

// Column returns the dense value series for a column name.
func (m *RegressorMatrix) Column(name string) ([]float64, bool) {
	col, ok := m.values[name]
	return col, ok
}

// At returns the value at row i of the named column; an absent column reads
// as zero.
func (m *RegressorMatrix) At(i int, name string) float64 {
	col, ok := m.values[name]
	if !ok {
		return 0
	}
	return col[i]
}

// Row returns row i keyed by column name.
func (m *RegressorMatrix) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(m.columns))
	for _, name := range m.columns {
		row[name] = m.values[name][i]
	}
	return row
}

// UnsupportedFrequencyError reports an unrecognized recurrence tag.
type UnsupportedFrequencyError struct {
	Frequency Frequency
}

// Error implements the error interface.
func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("unsupported frequency %q", string(e.Frequency))
}

// InvalidRangeError reports a date range whose end precedes its start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s",
		e.End.Format(DateLayout), e.Start.Format(DateLayout))
}

// ValidationError reports a structurally malformed event.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return ve.Message
}
