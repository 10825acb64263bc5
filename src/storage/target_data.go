package storage

import (
	"context"
	"database/sql"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/models"
)

// SaveAggregates maps aggregates onto narrow data rows and writes them in one
// transaction. Every signal is resolved before the first insert; a missing
// one aborts the whole write with a CatalogMissError. Rows that already exist
// for the same (timestamp, signal, statistic) are overwritten, so saving the
// same day twice leaves one row per statistic.
func (s *TargetStore) SaveAggregates(ctx context.Context, aggs []models.MAggregate) (int, error) {
	if len(aggs) == 0 {
		return 0, nil
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, helpers.NewDatabaseError("begin save aggregates", err)
	}
	defer tx.Rollback()

	ids, err := signalIDs(ctx, tx)
	if err != nil {
		return 0, helpers.NewDatabaseError("load signal catalog", err)
	}

	rows := make([]models.MStatRow, 0, len(aggs)*len(models.AggTypes))
	for _, agg := range aggs {
		id, ok := ids[agg.Signal]
		if !ok {
			return 0, helpers.NewCatalogMissError(agg.Signal)
		}
		for _, st := range agg.Stats() {
			rows = append(rows, models.MStatRow{
				Timestamp: agg.WindowStart,
				SignalID:  id,
				Value:     st.Value,
				AggType:   st.AggType,
			})
		}
	}

	stmt, err := tx.PrepareContext(ctx, s.db.dialect.rebind(`
		INSERT INTO data (timestamp, signal_id, value, agg_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (timestamp, signal_id, agg_type) DO UPDATE SET
			value = excluded.value
	`))
	if err != nil {
		return 0, helpers.NewDatabaseError("prepare save aggregates", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		value := sql.NullFloat64{}
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, toMillis(r.Timestamp), r.SignalID, value, string(r.AggType)); err != nil {
			return 0, helpers.NewDatabaseError("insert aggregate row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, helpers.NewDatabaseError("commit save aggregates", err)
	}

	s.db.Logger.Info("Aggregated data saved (%d rows)", len(rows))
	return len(rows), nil
}

// -----------------------------------------------------------------------------

// ListStats returns the stored rows with from <= timestamp < to.
func (s *TargetStore) ListStats(ctx context.Context, from, to time.Time) ([]models.MStatRow, error) {
	rows, err := s.db.DB.QueryContext(ctx, s.db.dialect.rebind(`
		SELECT id, timestamp, signal_id, value, agg_type
		FROM data
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp, signal_id, agg_type
	`), toMillis(from), toMillis(to))
	if err != nil {
		return nil, helpers.NewDatabaseError("list stats", err)
	}
	defer rows.Close()

	var out []models.MStatRow
	for rows.Next() {
		var (
			r       models.MStatRow
			ms      int64
			value   sql.NullFloat64
			aggType string
		)
		if err := rows.Scan(&r.ID, &ms, &r.SignalID, &value, &aggType); err != nil {
			return nil, helpers.NewDatabaseError("scan stat", err)
		}
		r.Timestamp = fromMillis(ms)
		r.AggType = models.AggType(aggType)
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("list stats", err)
	}
	return out, nil
}
