package sqlstore

import (
	"fmt"
	"strings"
	"time"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config holds connection settings for either backend.
type Config struct {
	Dialect Dialect
	// DSN is the driver connection string. For SQLite the pragmas below are
	// appended as _pragma parameters so that every pooled connection gets them.
	DSN string

	// BusyTimeout sets how long SQLite waits for database locks.
	BusyTimeout       time.Duration
	EnableForeignKeys bool
	JournalMode       string
	Synchronous       string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns a SQLite configuration with sensible defaults.
func DefaultSQLiteConfig(dsn string) Config {
	return Config{
		Dialect:           DialectSQLite,
		DSN:               dsn,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      25,
		MaxIdleConns:      5,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// DefaultPostgresConfig returns a PostgreSQL configuration with sensible defaults.
func DefaultPostgresConfig(dsn string) Config {
	return Config{
		Dialect:         DialectPostgres,
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// TempFileTestConfig returns a SQLite configuration tuned for tests backed by
// a temporary file.
func TempFileTestConfig(path string) Config {
	return Config{
		Dialect:           DialectSQLite,
		DSN:               "file:" + path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "OFF",
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
	}
}

// Validate reports configuration mistakes before a connection is attempted.
func (c Config) Validate() error {
	switch c.Dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return fmt.Errorf("sqlstore: unsupported dialect %q", c.Dialect)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("sqlstore: dsn is required")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("sqlstore: connection limits must not be negative")
	}
	if c.Dialect == DialectSQLite {
		switch strings.ToUpper(c.JournalMode) {
		case "", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
		default:
			return fmt.Errorf("sqlstore: invalid journal mode %q", c.JournalMode)
		}
		switch strings.ToUpper(c.Synchronous) {
		case "", "OFF", "NORMAL", "FULL", "EXTRA":
		default:
			return fmt.Errorf("sqlstore: invalid synchronous mode %q", c.Synchronous)
		}
	}
	return nil
}

func (c Config) driverName() string {
	if c.Dialect == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// driverDSN returns the DSN handed to sql.Open.
func (c Config) driverDSN() string {
	if c.Dialect != DialectSQLite {
		return c.DSN
	}

	var pragmas []string
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.EnableForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
	}
	if len(pragmas) == 0 {
		return c.DSN
	}

	var b strings.Builder
	b.WriteString(c.DSN)
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}
