package storage

import (
	"context"
	"fmt"
)

// TargetStore owns the signal catalog and the aggregated data table.
type TargetStore struct {
	db *Database
}

// -----------------------------------------------------------------------------

func NewTargetStore(db *Database) *TargetStore {
	return &TargetStore{db: db}
}

// -----------------------------------------------------------------------------

// Migrate creates the catalog and data tables when they are missing. Existing
// rows are kept.
func (s *TargetStore) Migrate(ctx context.Context) error {
	d := s.db.dialect
	return s.db.execAll(ctx,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS signal (
				id %s,
				name TEXT NOT NULL UNIQUE
			)`, d.autoID),
		`CREATE INDEX IF NOT EXISTS ix_signal_name ON signal (name)`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS data (
				id %s,
				timestamp %s NOT NULL,
				signal_id %s NOT NULL REFERENCES signal (id),
				value %s,
				agg_type TEXT NOT NULL CHECK (agg_type IN ('mean', 'min', 'max', 'std')),
				UNIQUE (timestamp, signal_id, agg_type)
			)`, d.autoID, d.bigintType, d.bigintType, d.floatType),
		`CREATE INDEX IF NOT EXISTS ix_data_signal_id ON data (signal_id)`,
	)
}
