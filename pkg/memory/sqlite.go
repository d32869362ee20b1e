package memory

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// SQLiteStore persists step records across runs. It backs the
// LONG_TERM_MEMORY config switch.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS steps (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL DEFAULT '',
	input      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
`

// NewSQLiteStore opens (and migrates) the store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "cannot open sqlite store", err).
			WithContext("path", path)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.New(errors.CodeMemoryError, "sqlite migration failed", err).
			WithContext("path", path)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Store implements core.Memory.
func (s *SQLiteStore) Store(ctx context.Context, data any) error {
	rec, ok := recordFrom(data)
	if !ok {
		return errors.New(errors.CodeMemoryError, "unsupported memory record", nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO steps (run_id, role, action, input, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Role, rec.Action, rec.Input, rec.Content, rec.CreatedAt)
	if err != nil {
		return errors.New(errors.CodeMemoryError, "sqlite insert failed", err)
	}
	return nil
}

// Retrieve implements core.Memory. A string query filters on run id first,
// then substring-matches content; empty returns the most recent 100 steps.
func (s *SQLiteStore) Retrieve(ctx context.Context, query any) (any, error) {
	q, _ := query.(string)

	var rows *sql.Rows
	var err error
	switch {
	case q == "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT run_id, role, action, input, content, created_at FROM steps ORDER BY id DESC LIMIT 100`)
	default:
		rows, err = s.db.QueryContext(ctx,
			`SELECT run_id, role, action, input, content, created_at FROM steps
			 WHERE run_id = ? OR content LIKE ? ORDER BY id`, q, "%"+q+"%")
	}
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "sqlite query failed", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.RunID, &rec.Role, &rec.Action, &rec.Input, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, errors.New(errors.CodeMemoryError, "sqlite scan failed", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunHistory returns the ordered steps of one run.
func (s *SQLiteStore) RunHistory(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, role, action, input, content, created_at FROM steps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "sqlite query failed", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.RunID, &rec.Role, &rec.Action, &rec.Input, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, errors.New(errors.CodeMemoryError, "sqlite scan failed", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
