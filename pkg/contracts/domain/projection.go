package domain

// MatrixRow is one calendar day of a regressor matrix: the row date plus the
// contribution of every event column on that day. Values always carries an
// entry for every column of the table, zero where nothing contributes.
type MatrixRow struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// RegressorTable is the dense projection output for a date range: one row
// per day, one column per sanitized event name. Columns preserves
// first-appearance order so consumers can render deterministically.
type RegressorTable struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Columns   []string    `json:"columns"`
	Rows      []MatrixRow `json:"rows"`
}

// NumRows returns the number of date rows in the table.
func (t *RegressorTable) NumRows() int {
	return len(t.Rows)
}
