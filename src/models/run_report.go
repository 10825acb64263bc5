package models

import "time"

// MRunReport summarises one ETL run over a single day.
type MRunReport struct {
	RunID       string        `json:"run_id"`
	Day         string        `json:"day"`
	Extracted   int           `json:"extracted"`
	Windows     int           `json:"windows"`
	Aggregates  int           `json:"aggregates"`
	RowsWritten int           `json:"rows_written"`
	ExtractErr  error         `json:"-"`
	Duration    time.Duration `json:"duration"`
}

// Degraded reports whether extraction failed and the day was treated as empty.
func (r MRunReport) Degraded() bool {
	return r.ExtractErr != nil
}
