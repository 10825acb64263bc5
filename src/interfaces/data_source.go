package interfaces

import (
	"context"

	"sensor-etl/src/models"
)

// -----------------------------------------------------------------------------
// IExtractor interface for fetching one day of raw readings from a source.
// -----------------------------------------------------------------------------

type IExtractor interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// ExtractDay returns the readings whose UTC date is day (YYYY-MM-DD).
	// Unreachable sources yield an empty slice together with the error.
	ExtractDay(ctx context.Context, day string) ([]models.MRawReading, error)
}

// -----------------------------------------------------------------------------
// IAggregator turns raw readings into window aggregates.
// -----------------------------------------------------------------------------

type IAggregator interface {
	Aggregate(readings []models.MRawReading) []models.MAggregate
}
