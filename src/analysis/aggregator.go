package analysis

import (
	"time"

	"sensor-etl/src/analysis/core"
	"sensor-etl/src/logger"
	"sensor-etl/src/models"
)

// AnalysisFacade turns raw readings into per-window, per-signal aggregates.
// It holds no mutable state, so one instance may serve concurrent callers
// with disjoint inputs.
type AnalysisFacade struct {
	Resampler *TimeSeriesResampler
	Signals   []string
	Ddof      core.Ddof
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(width time.Duration, signals []string, ddof core.Ddof, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Resampler: &TimeSeriesResampler{Width: width},
		Signals:   append([]string(nil), signals...),
		Ddof:      ddof,
		Logger:    log,
	}
}

// DdofFromMode maps the configured std mode onto a denominator offset.
func DdofFromMode(mode string) core.Ddof {
	if mode == "population" {
		return core.Population
	}
	return core.Sample
}

// -----------------------------------------------------------------------------

// Aggregate buckets readings and summarises every signal of every populated
// window. Output is ordered by window start, then by the configured signal
// order. A signal with no values in a window yields no aggregate there; its
// siblings are unaffected.
func (a *AnalysisFacade) Aggregate(readings []models.MRawReading) []models.MAggregate {
	if len(readings) == 0 {
		if a.Logger != nil {
			a.Logger.Info("No data to aggregate")
		}
		return []models.MAggregate{}
	}

	windows := a.Resampler.Resample(readings)
	aggs := make([]models.MAggregate, 0, len(windows)*len(a.Signals))

	for _, w := range windows {
		for _, signal := range a.Signals {
			summary, ok := core.Summarize(w.Values(signal), a.Ddof)
			if !ok {
				continue
			}
			aggs = append(aggs, models.MAggregate{
				WindowStart: w.Start,
				WindowEnd:   w.End,
				Signal:      signal,
				Count:       summary.Count,
				Mean:        summary.Mean,
				Min:         summary.Min,
				Max:         summary.Max,
				Std:         summary.Std,
			})
		}
	}

	if a.Logger != nil {
		a.Logger.Info("Aggregated %d readings into %d windows (%d aggregates, width %s)",
			len(readings), len(windows), len(aggs), a.Resampler.Width)
	}
	return aggs
}

// -----------------------------------------------------------------------------

// CountWindows returns the number of distinct windows among aggs.
func CountWindows(aggs []models.MAggregate) int {
	seen := make(map[int64]struct{})
	for _, a := range aggs {
		seen[a.WindowStart.UnixNano()] = struct{}{}
	}
	return len(seen)
}
