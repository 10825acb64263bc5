package storage

import (
	"sensor-etl/src/logger"

	_ "github.com/lib/pq"
)

// NewPostgresDB prepares a Postgres handle; call Initialize to connect.
func NewPostgresDB(dsn string, log *logger.Logger) *Database {
	return &Database{
		DSN:     dsn,
		Logger:  log,
		dialect: postgresDialect,
	}
}
