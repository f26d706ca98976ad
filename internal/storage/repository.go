// Package storage persists the client session and the export history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finview/internal/session"

	_ "modernc.org/sqlite"
)

// ErrNoExport is returned when a session has never been exported.
var ErrNoExport = errors.New("no export recorded")

type SQLiteRepository struct {
	db            *sql.DB
	queries       *Queries
	schemaVersion uint
}

var _ session.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session schema: %w", err)
	}

	return &SQLiteRepository{
		db:            db,
		queries:       New(db),
		schemaVersion: version,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadSession implements session.Store
func (r *SQLiteRepository) LoadSession(ctx context.Context, key string) (session.State, error) {
	row, err := r.queries.GetSession(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, session.ErrNotFound
	}
	if err != nil {
		return session.State{}, fmt.Errorf("get session %s: %w", key, err)
	}
	return session.State{
		Token:         row.Token,
		EnvironmentID: row.EnvironmentID,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// SaveSession implements session.Store
func (r *SQLiteRepository) SaveSession(ctx context.Context, key string, st session.State) error {
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	err := r.queries.UpsertSession(ctx, SessionRow{
		SessionKey:    key,
		Token:         st.Token,
		EnvironmentID: st.EnvironmentID,
		UpdatedAt:     updated,
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// DeleteSession implements session.Store
func (r *SQLiteRepository) DeleteSession(ctx context.Context, key string) error {
	if err := r.queries.DeleteSession(ctx, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

// RecordExport stores a completed export.
func (r *SQLiteRepository) RecordExport(ctx context.Context, run ExportRun) (int64, error) {
	if run.ExportedAt.IsZero() {
		run.ExportedAt = time.Now().UTC()
	}
	id, err := r.queries.CreateExportRun(ctx, run)
	if err != nil {
		return 0, fmt.Errorf("record export: %w", err)
	}
	return id, nil
}

// LastExport returns the most recent export of a session.
func (r *SQLiteRepository) LastExport(ctx context.Context, key string) (ExportRun, error) {
	run, err := r.queries.GetLastExportRun(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRun{}, ErrNoExport
	}
	if err != nil {
		return ExportRun{}, fmt.Errorf("last export %s: %w", key, err)
	}
	return run, nil
}
