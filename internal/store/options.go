package store

import (
	"log/slog"
	"strings"
)

// Opts holds configuration options for store backends.
type Opts struct {
	DSN    string // database connection string or SQLite file path
	Driver string // "postgres" or "sqlite3"; empty selects the in-memory store
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithPostgresDSN configures a PostgreSQL backend.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// WithSQLiteDSN configures a SQLite backend at the given file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite3"
	}
}

// DetectDSNType returns "postgres" for PostgreSQL URLs and key/value connection strings,
// and "sqlite3" for anything else.
func DetectDSNType(dsn string) string {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") || strings.Contains(lower, "user=") {
		return "postgres"
	}
	return "sqlite3"
}

// NewStore opens the backend selected by opts, falling back to an in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.Driver {
	case "postgres":
		slog.Debug("NewStore: using PostgreSQL store")
		return NewPostgresStore(opts...)
	case "sqlite3":
		slog.Debug("NewStore: using SQLite store", "path", cfg.DSN)
		return NewSQLiteStore(opts...)
	default:
		slog.Debug("NewStore: no database configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
}
