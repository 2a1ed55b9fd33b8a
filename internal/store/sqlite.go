// Package store provides storage backends for CrisisSense.
//
// This file implements an SQLite-backed store for crisis resolutions and check-ins.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/CrisisSense/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	// SQLite serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "path", dsn)

	return &SQLiteStore{db: db}, nil
}

// AddCrisisResolution stores a crisis resolution.
func (s *SQLiteStore) AddCrisisResolution(ctx context.Context, r models.CrisisResolution) (models.CrisisResolution, error) {
	r, err := prepareResolution(r)
	if err != nil {
		return models.CrisisResolution{}, err
	}
	interventions, err := encodeInterventions(r.InterventionsUsed)
	if err != nil {
		return models.CrisisResolution{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crisis_resolutions (`+resolutionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.CrisisStartTime.UTC(), r.ResolutionTime.UTC(),
		interventions, nullableRating(r.EffectivenessRating), nilIfEmpty(r.Notes), r.SafetyConfirmed)
	if err != nil {
		slog.Error("SQLiteStore AddCrisisResolution failed", "error", err, "user_id", r.UserID)
		return models.CrisisResolution{}, fmt.Errorf("failed to insert crisis resolution for %s: %w", r.UserID, err)
	}
	slog.Debug("SQLiteStore AddCrisisResolution succeeded", "user_id", r.UserID, "id", r.ID)
	return r, nil
}

// AddCheckIn stores a check-in.
func (s *SQLiteStore) AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	c, err := prepareCheckIn(c)
	if err != nil {
		return models.CheckIn{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO check_ins (`+checkInColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nilIfEmpty(c.TaskID), c.Timestamp.UTC(), c.MoodRating, nilIfEmpty(c.Notes), c.NeedsSupport)
	if err != nil {
		slog.Error("SQLiteStore AddCheckIn failed", "error", err, "user_id", c.UserID)
		return models.CheckIn{}, fmt.Errorf("failed to insert check-in for %s: %w", c.UserID, err)
	}
	slog.Debug("SQLiteStore AddCheckIn succeeded", "user_id", c.UserID, "id", c.ID)
	return c, nil
}

// FetchHistory returns all records of a user.
func (s *SQLiteStore) FetchHistory(ctx context.Context, userID string) (models.History, error) {
	h, err := queryHistory(ctx, s.db,
		`SELECT `+resolutionColumns+` FROM crisis_resolutions WHERE user_id = ? ORDER BY crisis_start_time ASC, id ASC`,
		`SELECT `+checkInColumns+` FROM check_ins WHERE user_id = ? ORDER BY recorded_at ASC, id ASC`,
		userID)
	if err != nil {
		slog.Error("SQLiteStore FetchHistory failed", "error", err, "user_id", userID)
		return models.History{}, err
	}
	slog.Debug("SQLiteStore FetchHistory succeeded", "user_id", userID,
		"resolutions", len(h.Resolutions), "check_ins", len(h.CheckIns))
	return h, nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
