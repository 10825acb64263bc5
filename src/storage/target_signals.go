package storage

import (
	"context"
	"database/sql"
	"fmt"

	"sensor-etl/src/helpers"
	"sensor-etl/src/models"
)

// EnsureSignals creates a catalog entry for every name that has none and
// leaves existing ones untouched. The unique constraint on name turns a
// concurrent insert of the same name into a no-op, so callers need not
// serialize. The whole list commits once.
func (s *TargetStore) EnsureSignals(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, helpers.NewDatabaseError("begin ensure signals", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.db.dialect.rebind(`
		INSERT INTO signal (name) VALUES (?)
		ON CONFLICT (name) DO NOTHING
	`))
	if err != nil {
		return 0, helpers.NewDatabaseError("prepare ensure signals", err)
	}
	defer stmt.Close()

	created := 0
	for _, name := range names {
		if name == "" {
			return 0, helpers.NewValidationError("signal name cannot be empty", nil)
		}
		res, err := stmt.ExecContext(ctx, name)
		if err != nil {
			return 0, helpers.NewDatabaseError(fmt.Sprintf("ensure signal %q", name), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, helpers.NewDatabaseError("commit ensure signals", err)
	}

	s.db.Logger.Info("Signals ensured in catalog (%d requested, %d created)", len(names), created)
	return created, nil
}

// -----------------------------------------------------------------------------

// Signals returns the whole catalog ordered by id.
func (s *TargetStore) Signals(ctx context.Context) ([]models.MSignal, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT id, name FROM signal ORDER BY id`)
	if err != nil {
		return nil, helpers.NewDatabaseError("list signals", err)
	}
	defer rows.Close()

	var signals []models.MSignal
	for rows.Next() {
		var sig models.MSignal
		if err := rows.Scan(&sig.ID, &sig.Name); err != nil {
			return nil, helpers.NewDatabaseError("scan signal", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("list signals", err)
	}
	return signals, nil
}

// -----------------------------------------------------------------------------

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func signalIDs(ctx context.Context, q queryer) (map[string]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM signal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}
