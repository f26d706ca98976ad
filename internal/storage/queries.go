package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements of the session database.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx runs the queries inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SessionRow struct {
	SessionKey    string
	Token         string
	EnvironmentID string
	UpdatedAt     time.Time
}

const getSession = `SELECT session_key, token, environment_id, updated_at FROM sessions WHERE session_key = ?`

func (q *Queries) GetSession(ctx context.Context, key string) (SessionRow, error) {
	row := q.db.QueryRowContext(ctx, getSession, key)
	var s SessionRow
	err := row.Scan(&s.SessionKey, &s.Token, &s.EnvironmentID, &s.UpdatedAt)
	return s, err
}

const upsertSession = `INSERT INTO sessions (session_key, token, environment_id, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_key) DO UPDATE SET
    token = excluded.token,
    environment_id = excluded.environment_id,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertSession(ctx context.Context, s SessionRow) error {
	_, err := q.db.ExecContext(ctx, upsertSession, s.SessionKey, s.Token, s.EnvironmentID, s.UpdatedAt)
	return err
}

const deleteSession = `DELETE FROM sessions WHERE session_key = ?`

func (q *Queries) DeleteSession(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, key)
	return err
}

type ExportRun struct {
	ID            int64
	SessionKey    string
	EnvironmentID string
	TargetRange   string
	RowCount      int64
	ExportedAt    time.Time
}

const createExportRun = `INSERT INTO export_runs (session_key, environment_id, target_range, row_count, exported_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateExportRun(ctx context.Context, r ExportRun) (int64, error) {
	res, err := q.db.ExecContext(ctx, createExportRun, r.SessionKey, r.EnvironmentID, r.TargetRange, r.RowCount, r.ExportedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getLastExportRun = `SELECT id, session_key, environment_id, target_range, row_count, exported_at
FROM export_runs WHERE session_key = ? ORDER BY exported_at DESC, id DESC LIMIT 1`

func (q *Queries) GetLastExportRun(ctx context.Context, key string) (ExportRun, error) {
	row := q.db.QueryRowContext(ctx, getLastExportRun, key)
	var r ExportRun
	err := row.Scan(&r.ID, &r.SessionKey, &r.EnvironmentID, &r.TargetRange, &r.RowCount, &r.ExportedAt)
	return r, err
}
