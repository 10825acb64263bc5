package interfaces

import (
	"context"
	"time"

	"sensor-etl/src/models"
)

// -----------------------------------------------------------------------------
// ISignalCatalog defines the contract for the signal registry.
// -----------------------------------------------------------------------------

type ISignalCatalog interface {

	// EnsureSignals registers names that are missing; existing names are kept.
	// Returns the number of newly created entries.
	EnsureSignals(ctx context.Context, names []string) (int, error)

	// -----------------------------------------------------------------------------

	// Signals lists the registered signals.
	Signals(ctx context.Context) ([]models.MSignal, error)
}

// -----------------------------------------------------------------------------
// IAggregateStore persists aggregates in the narrow target layout.
// -----------------------------------------------------------------------------

type IAggregateStore interface {

	// SaveAggregates writes all rows or none and returns the row count.
	SaveAggregates(ctx context.Context, aggs []models.MAggregate) (int, error)

	// -----------------------------------------------------------------------------

	// ListStats returns stored rows with from <= timestamp < to.
	ListStats(ctx context.Context, from, to time.Time) ([]models.MStatRow, error)
}

// -----------------------------------------------------------------------------
// IReadingStore defines the contract for the raw readings served by the API.
// -----------------------------------------------------------------------------

type IReadingStore interface {
	Insert(ctx context.Context, row models.MDataRow) (models.MDataRow, error)
	QueryRange(ctx context.Context, start, end *time.Time) ([]models.MDataRow, error)
	Get(ctx context.Context, id int64) (models.MDataRow, error)
	Delete(ctx context.Context, id int64) error
}
