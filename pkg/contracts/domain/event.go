package domain

// Event is the wire representation of a scheduled financial event. Dates
// cross the API boundary as ISO-8601 strings; Frequency is one of one_time,
// monthly, quarterly.
type Event struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	StartDate string  `json:"start_date"`
	Frequency string  `json:"frequency"`
}

// SeriesPoint is a single dated observation in a value series.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
