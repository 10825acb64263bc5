package analysis

import (
	"sort"
	"time"

	"sensor-etl/src/models"
)

// TimeSeriesResampler buckets readings into fixed-width windows aligned to the
// Unix epoch.
type TimeSeriesResampler struct {
	Width time.Duration
}

// Window is one populated bucket. Readings keep their input order.
type Window struct {
	Start    time.Time
	End      time.Time
	Readings []models.MRawReading
}

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries returns the half-open window [start, end) that
// contains ts. Boundaries are multiples of width counted from the epoch, so a
// timestamp exactly on a boundary opens a new window.
func CalculateWindowBoundaries(ts time.Time, width time.Duration) (time.Time, time.Time) {
	ns := ts.UnixNano()
	w := int64(width)
	rem := ns % w
	if rem < 0 {
		rem += w
	}
	start := time.Unix(0, ns-rem).UTC()
	return start, start.Add(width)
}

// -----------------------------------------------------------------------------

// Resample groups readings by window and returns the populated windows in
// ascending start order. Empty windows are not returned.
func (r *TimeSeriesResampler) Resample(readings []models.MRawReading) []Window {
	if len(readings) == 0 {
		return []Window{}
	}

	byStart := make(map[int64]*Window)
	for _, rd := range readings {
		start, end := CalculateWindowBoundaries(rd.Timestamp, r.Width)
		key := start.UnixNano()
		w, ok := byStart[key]
		if !ok {
			w = &Window{Start: start, End: end}
			byStart[key] = w
		}
		w.Readings = append(w.Readings, rd)
	}

	starts := make([]int64, 0, len(byStart))
	for k := range byStart {
		starts = append(starts, k)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	windows := make([]Window, 0, len(starts))
	for _, k := range starts {
		windows = append(windows, *byStart[k])
	}
	return windows
}

// -----------------------------------------------------------------------------

// Values collects the values of one signal inside a window. Readings that do
// not carry the signal contribute nothing.
func (w Window) Values(signal string) []float64 {
	var out []float64
	for _, rd := range w.Readings {
		if v, ok := rd.Values[signal]; ok {
			out = append(out, v)
		}
	}
	return out
}
