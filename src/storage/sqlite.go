package storage

import (
	"sensor-etl/src/logger"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB prepares a SQLite handle on a file path; call Initialize to open it.
func NewSQLiteDB(path string, log *logger.Logger) *Database {
	return &Database{
		DSN:     path,
		Logger:  log,
		dialect: sqliteDialect,
	}
}
