package models

import (
	"time"

	"sensor-etl/src/helpers"
)

// Column names of the readings table. They double as JSON keys and as the
// allow-list for field selection.
const (
	FieldID                 = "id"
	FieldTimestamp          = "timestamp"
	FieldAmbientTemperature = "ambient_temperature"
	FieldPower              = "power"
	FieldWindSpeed          = "wind_speed"
)

// MDataRow is one row of the source readings table.
type MDataRow struct {
	ID                 int64     `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	AmbientTemperature float64   `json:"ambient_temperature"`
	Power              float64   `json:"power"`
	WindSpeed          float64   `json:"wind_speed"`
}

// MRawReading is one sensor sample as seen by the aggregation engine.
// A signal missing from Values was not reported by that sample.
type MRawReading struct {
	Timestamp time.Time
	Values    map[string]float64
}

// -----------------------------------------------------------------------------

var rowAccessors = map[string]func(MDataRow) any{
	FieldID:                 func(r MDataRow) any { return r.ID },
	FieldTimestamp:          func(r MDataRow) any { return r.Timestamp },
	FieldAmbientTemperature: func(r MDataRow) any { return r.AmbientTemperature },
	FieldPower:              func(r MDataRow) any { return r.Power },
	FieldWindSpeed:          func(r MDataRow) any { return r.WindSpeed },
}

// AllFields lists every selectable column in table order.
var AllFields = []string{FieldID, FieldTimestamp, FieldAmbientTemperature, FieldPower, FieldWindSpeed}

// SignalFields lists the numeric columns that can be aggregated.
var SignalFields = []string{FieldWindSpeed, FieldPower, FieldAmbientTemperature}

// -----------------------------------------------------------------------------

// ValidateFields rejects the whole list if any name is not a known column.
// An empty list selects every column.
func ValidateFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return AllFields, nil
	}

	var unknown []string
	seen := make(map[string]struct{}, len(fields))
	selected := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := rowAccessors[f]; !ok {
			unknown = append(unknown, f)
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		selected = append(selected, f)
	}

	if len(unknown) > 0 {
		return nil, helpers.NewInvalidFieldError(unknown)
	}
	return selected, nil
}

// IsSignalField reports whether name is an aggregatable column.
func IsSignalField(name string) bool {
	for _, f := range SignalFields {
		if f == name {
			return true
		}
	}
	return false
}

// Select projects the row onto the given, already validated, fields.
func (r MDataRow) Select(fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if get, ok := rowAccessors[f]; ok {
			out[f] = get(r)
		}
	}
	return out
}

// Reading converts a stored row into an engine sample.
func (r MDataRow) Reading() MRawReading {
	return MRawReading{
		Timestamp: r.Timestamp.UTC(),
		Values: map[string]float64{
			FieldAmbientTemperature: r.AmbientTemperature,
			FieldPower:              r.Power,
			FieldWindSpeed:          r.WindSpeed,
		},
	}
}
