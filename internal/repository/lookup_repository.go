// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/abelzeko/riverflow/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// LookupRepository defines the interface for lookup history persistence operations
type LookupRepository interface {
	SaveLookup(lookup entities.Lookup) error
	RecentLookups(limit int) ([]entities.Lookup, error)
	Close() error
}

// SQLiteLookupRepository implements LookupRepository using SQLite
type SQLiteLookupRepository struct {
	db     *sql.DB
	DBPath string
	logger *slog.Logger
}

// NewSQLiteLookupRepository opens (and creates if needed) the lookup history database
func NewSQLiteLookupRepository(dbPath string, logger *slog.Logger) (*SQLiteLookupRepository, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("lookup history database path is empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logger.Debug("opening database", "path", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL,
		reading_date TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		looked_up_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_station ON lookups(station_id);
	CREATE INDEX IF NOT EXISTS idx_lookups_time ON lookups(looked_up_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteLookupRepository{
		db:     db,
		DBPath: dbPath,
		logger: logger,
	}, nil
}

// Close closes the database connection
func (r *SQLiteLookupRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveLookup appends a displayed reading to the history
func (r *SQLiteLookupRepository) SaveLookup(l entities.Lookup) error {
	lookedUpAt := l.LookedUpAt
	if lookedUpAt.IsZero() {
		lookedUpAt = time.Now()
	}
	// Stored as unix nanoseconds to avoid the driver's DATETIME string round trip.
	_, err := r.db.Exec(`
		INSERT INTO lookups(station_id, station_name, reading_date, value, unit, looked_up_at)
		VALUES(?, ?, ?, ?, ?, ?)`,
		l.StationID, l.StationName, l.Date, l.Value, l.Unit, lookedUpAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lookup for %s: %w", l.StationID, err)
	}
	r.logger.Debug("saved lookup", "station_id", l.StationID, "date", l.Date)
	return nil
}

// RecentLookups returns up to limit lookups, newest first
func (r *SQLiteLookupRepository) RecentLookups(limit int) ([]entities.Lookup, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(`
		SELECT id, station_id, station_name, reading_date, value, unit, looked_up_at
		FROM lookups
		ORDER BY looked_up_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var result []entities.Lookup
	for rows.Next() {
		var l entities.Lookup
		var nanos int64
		if err := rows.Scan(&l.ID, &l.StationID, &l.StationName, &l.Date, &l.Value, &l.Unit, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		l.LookedUpAt = time.Unix(0, nanos)
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}
