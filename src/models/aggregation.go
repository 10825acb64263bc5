package models

import "time"

// AggType discriminates the statistic stored in a narrow data row.
type AggType string

const (
	AggMean AggType = "mean"
	AggMin  AggType = "min"
	AggMax  AggType = "max"
	AggStd  AggType = "std"
)

// AggTypes is the fixed emission order of statistics for one aggregate.
var AggTypes = []AggType{AggMean, AggMin, AggMax, AggStd}

// MAggregate is the summary of one signal over one window.
// Std is nil when fewer than two values contributed.
type MAggregate struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Signal      string    `json:"signal"`
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Std         *float64  `json:"std"`
}

// MStat is one statistic of an aggregate in narrow form.
type MStat struct {
	AggType AggType
	Value   *float64
}

// Stats re-encodes the aggregate as one entry per statistic.
func (a MAggregate) Stats() []MStat {
	mean, lo, hi := a.Mean, a.Min, a.Max
	return []MStat{
		{AggType: AggMean, Value: &mean},
		{AggType: AggMin, Value: &lo},
		{AggType: AggMax, Value: &hi},
		{AggType: AggStd, Value: a.Std},
	}
}

// MStatRow is one row of the target data table.
type MStatRow struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SignalID  int64     `json:"signal_id"`
	Value     *float64  `json:"value"`
	AggType   AggType   `json:"agg_type"`
}
