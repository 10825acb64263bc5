package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/models"
)

// ErrNotFound is returned when a reading id does not exist.
var ErrNotFound = errors.New("reading not found")

// ReadingStore holds the raw readings served by the readings API.
type ReadingStore struct {
	db *Database
}

// -----------------------------------------------------------------------------

func NewReadingStore(db *Database) *ReadingStore {
	return &ReadingStore{db: db}
}

// -----------------------------------------------------------------------------

// Migrate creates the readings table when it is missing.
func (s *ReadingStore) Migrate(ctx context.Context) error {
	d := s.db.dialect
	return s.db.execAll(ctx,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS readings (
				id %s,
				timestamp %s NOT NULL,
				ambient_temperature %s NOT NULL,
				power %s NOT NULL,
				wind_speed %s NOT NULL
			)`, d.autoID, d.bigintType, d.floatType, d.floatType, d.floatType),
		`CREATE INDEX IF NOT EXISTS ix_readings_timestamp ON readings (timestamp)`,
	)
}

// -----------------------------------------------------------------------------

// Insert stores a reading and returns it with its new id.
func (s *ReadingStore) Insert(ctx context.Context, row models.MDataRow) (models.MDataRow, error) {
	query := s.db.dialect.rebind(`
		INSERT INTO readings (timestamp, ambient_temperature, power, wind_speed)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.DB.QueryRowContext(ctx, query,
		toMillis(row.Timestamp), row.AmbientTemperature, row.Power, row.WindSpeed,
	).Scan(&row.ID)
	if err != nil {
		return models.MDataRow{}, helpers.NewDatabaseError("insert reading", err)
	}
	row.Timestamp = fromMillis(toMillis(row.Timestamp))
	return row, nil
}

// -----------------------------------------------------------------------------

// QueryRange returns readings with start <= timestamp <= end ordered by
// timestamp. A nil bound is open.
func (s *ReadingStore) QueryRange(ctx context.Context, start, end *time.Time) ([]models.MDataRow, error) {
	var (
		conds []string
		args  []any
	)
	if start != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, toMillis(*start))
	}
	if end != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, toMillis(*end))
	}

	query := `SELECT id, timestamp, ambient_temperature, power, wind_speed FROM readings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp, id"

	rows, err := s.db.DB.QueryContext(ctx, s.db.dialect.rebind(query), args...)
	if err != nil {
		return nil, helpers.NewDatabaseError("query readings", err)
	}
	defer rows.Close()

	out := []models.MDataRow{}
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, helpers.NewDatabaseError("scan reading", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("query readings", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Get returns one reading or ErrNotFound.
func (s *ReadingStore) Get(ctx context.Context, id int64) (models.MDataRow, error) {
	row := s.db.DB.QueryRowContext(ctx, s.db.dialect.rebind(`
		SELECT id, timestamp, ambient_temperature, power, wind_speed
		FROM readings WHERE id = ?
	`), id)

	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MDataRow{}, ErrNotFound
	}
	if err != nil {
		return models.MDataRow{}, helpers.NewDatabaseError("get reading", err)
	}
	return r, nil
}

// -----------------------------------------------------------------------------

// Delete removes one reading or returns ErrNotFound.
func (s *ReadingStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.DB.ExecContext(ctx, s.db.dialect.rebind(`DELETE FROM readings WHERE id = ?`), id)
	if err != nil {
		return helpers.NewDatabaseError("delete reading", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return helpers.NewDatabaseError("delete reading", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(sc scanner) (models.MDataRow, error) {
	var (
		r  models.MDataRow
		ms int64
	)
	if err := sc.Scan(&r.ID, &ms, &r.AmbientTemperature, &r.Power, &r.WindSpeed); err != nil {
		return models.MDataRow{}, err
	}
	r.Timestamp = fromMillis(ms)
	return r, nil
}
