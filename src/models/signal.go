package models

// MSignal is a catalog entry.
type MSignal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultSignals are the signals aggregated when configuration names none.
var DefaultSignals = []string{FieldWindSpeed, FieldPower, FieldAmbientTemperature}
