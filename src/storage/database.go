package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sensor-etl/src/config"
	"sensor-etl/src/helpers"
	"sensor-etl/src/logger"
	"sensor-etl/src/models"
)

// dialect captures the few places where Postgres and SQLite disagree.
type dialect struct {
	name       string
	driver     string
	autoID     string
	floatType  string
	bigintType string
	positional bool // $1, $2 ... instead of ?
}

var (
	postgresDialect = dialect{
		name:       "postgres",
		driver:     "postgres",
		autoID:     "BIGSERIAL PRIMARY KEY",
		floatType:  "DOUBLE PRECISION",
		bigintType: "BIGINT",
		positional: true,
	}
	sqliteDialect = dialect{
		name:       "sqlite",
		driver:     "sqlite",
		autoID:     "INTEGER PRIMARY KEY AUTOINCREMENT",
		floatType:  "REAL",
		bigintType: "INTEGER",
	}
)

// rebind rewrites ? placeholders for drivers that need positional ones.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// Database is an explicitly owned connection pool. Callers create one per
// process or batch and Close it when done.
type Database struct {
	DB      *sql.DB
	DSN     string
	Logger  *logger.Logger
	dialect dialect
}

// -----------------------------------------------------------------------------

// NewDatabase picks the backend named by the storage configuration.
func NewDatabase(st models.MStorageConfig, log *logger.Logger) (*Database, error) {
	switch st.DBType {
	case "postgres":
		return NewPostgresDB(config.DSN(st), log), nil
	case "sqlite":
		return NewSQLiteDB(st.DBPath, log), nil
	default:
		return nil, helpers.NewConfigurationError("unsupported database type %q", st.DBType)
	}
}

// -----------------------------------------------------------------------------

// Initialize opens the pool and waits for the server to answer.
func (d *Database) Initialize(ctx context.Context) error {
	db, err := sql.Open(d.dialect.driver, d.DSN)
	if err != nil {
		return helpers.NewDatabaseError("open "+d.dialect.name, err)
	}

	if d.dialect.name == "sqlite" {
		// one writer, and pragmas apply per connection
		db.SetMaxOpenConns(1)
	}

	err = helpers.RetryWithBackoff(ctx, "database ping", 5, 500*time.Millisecond, d.Logger, func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping "+d.dialect.name, err)
	}

	d.DB = db

	if d.dialect.name == "sqlite" {
		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL;",
			"PRAGMA synchronous = NORMAL;",
			"PRAGMA foreign_keys = ON;",
			"PRAGMA busy_timeout = 5000;",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				d.Logger.Warning("Failed to apply %s: %v", pragma, err)
			}
		}
	}

	d.Logger.Info("%s database initialized", d.dialect.name)
	return nil
}

// -----------------------------------------------------------------------------

func (d *Database) execAll(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("exec %q", firstLine(stmt)), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
