//go:build !js && !wasm
// +build !js,!wasm

// Package telemetry records operational events for the spectral core —
// load/build/tile timings and outcomes — to a local SQLite database. It
// never stores spectrogram data; only scalar metadata about runs.
package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// DefaultDBFile is used when no path is supplied to Open.
const DefaultDBFile = "spectralcore_telemetry.sqlite3"

const errSinkNil = "telemetry sink is nil"

// Event is one row of the operational log.
type Event struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	SessionID  string    `gorm:"index:idx_session"`
	Kind       string    `gorm:"index:idx_kind"` // "load", "tile"
	Token      int64     `gorm:"index:idx_token"`
	Frames     int
	DurationMs int64
	Outcome    string // "done", "cancelled", "error"
	Detail     string
	CreatedAt  time.Time
}

// Sink wraps a GORM handle open on a SQLite file.
type Sink struct {
	db *gorm.DB
	sq *sql.DB
}

// Open creates (or reuses) the SQLite database at path and migrates the
// Event schema. An empty path uses DefaultDBFile.
func Open(path string) (*Sink, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating telemetry dir: %w", err)
		}
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Event{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate telemetry: %w", err)
	}

	return &Sink{db: db, sq: sqlDB}, nil
}

// Close releases the underlying database connection.
func (s *Sink) Close() error {
	if s == nil || s.sq == nil {
		return nil
	}
	return s.sq.Close()
}

// Record appends one event row, implementing specmodel.TelemetrySink.
// Errors are the caller's to log-and-swallow; telemetry must never fail a
// builder or tile run.
func (s *Sink) Record(ev specmodel.TelemetryEvent) error {
	if s == nil || s.db == nil {
		return errors.New(errSinkNil)
	}
	row := Event{
		SessionID:  ev.SessionID,
		Kind:       ev.Kind,
		Token:      ev.Token,
		Frames:     ev.Frames,
		DurationMs: ev.Duration,
		Outcome:    ev.Outcome,
		Detail:     ev.Detail,
	}
	return s.db.Create(&row).Error
}

// RecentBySession returns the most recent events for a session, newest first,
// bounded by limit. Used by the CLI's render command to report how many
// events the session recorded.
func (s *Sink) RecentBySession(sessionID string, limit int) ([]Event, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errSinkNil)
	}
	var rows []Event
	err := s.db.Where("session_id = ?", sessionID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying telemetry events: %w", err)
	}
	return rows, nil
}
