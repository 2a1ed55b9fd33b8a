// Package store provides storage backends for CrisisSense.
//
// This file implements a PostgreSQL-backed store for crisis resolutions and check-ins.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/CrisisSense/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	s, err := newPostgresStoreWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// newPostgresStoreWithDB runs the migrations on an open connection pool.
func newPostgresStoreWithDB(db *sql.DB) (*PostgresStore, error) {
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// AddCrisisResolution stores a crisis resolution.
func (s *PostgresStore) AddCrisisResolution(ctx context.Context, r models.CrisisResolution) (models.CrisisResolution, error) {
	r, err := prepareResolution(r)
	if err != nil {
		return models.CrisisResolution{}, err
	}
	interventions, err := encodeInterventions(r.InterventionsUsed)
	if err != nil {
		return models.CrisisResolution{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crisis_resolutions (`+resolutionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.UserID, r.CrisisStartTime, r.ResolutionTime,
		interventions, nullableRating(r.EffectivenessRating), nilIfEmpty(r.Notes), r.SafetyConfirmed)
	if err != nil {
		slog.Error("PostgresStore AddCrisisResolution failed", "error", err, "user_id", r.UserID)
		return models.CrisisResolution{}, fmt.Errorf("failed to insert crisis resolution for %s: %w", r.UserID, err)
	}
	slog.Debug("PostgresStore AddCrisisResolution succeeded", "user_id", r.UserID, "id", r.ID)
	return r, nil
}

// AddCheckIn stores a check-in.
func (s *PostgresStore) AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	c, err := prepareCheckIn(c)
	if err != nil {
		return models.CheckIn{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO check_ins (`+checkInColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, nilIfEmpty(c.TaskID), c.Timestamp, c.MoodRating, nilIfEmpty(c.Notes), c.NeedsSupport)
	if err != nil {
		slog.Error("PostgresStore AddCheckIn failed", "error", err, "user_id", c.UserID)
		return models.CheckIn{}, fmt.Errorf("failed to insert check-in for %s: %w", c.UserID, err)
	}
	slog.Debug("PostgresStore AddCheckIn succeeded", "user_id", c.UserID, "id", c.ID)
	return c, nil
}

// FetchHistory returns all records of a user.
func (s *PostgresStore) FetchHistory(ctx context.Context, userID string) (models.History, error) {
	h, err := queryHistory(ctx, s.db,
		`SELECT `+resolutionColumns+` FROM crisis_resolutions WHERE user_id = $1 ORDER BY crisis_start_time ASC, id ASC`,
		`SELECT `+checkInColumns+` FROM check_ins WHERE user_id = $1 ORDER BY recorded_at ASC, id ASC`,
		userID)
	if err != nil {
		slog.Error("PostgresStore FetchHistory failed", "error", err, "user_id", userID)
		return models.History{}, err
	}
	slog.Debug("PostgresStore FetchHistory succeeded", "user_id", userID,
		"resolutions", len(h.Resolutions), "check_ins", len(h.CheckIns))
	return h, nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
