package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run records in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// sortableTime keeps started_at lexically ordered.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  started_at TEXT NOT NULL,
  status INTEGER NOT NULL,
  outcome TEXT NOT NULL,
  body TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at)`); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	return nil
}

// Save upserts the record.
func (s *SQLiteStore) Save(record *RunRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", record.ID, err)
	}
	const stmt = `
INSERT INTO runs (id, kind, started_at, status, outcome, body)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  kind=excluded.kind,
  started_at=excluded.started_at,
  status=excluded.status,
  outcome=excluded.outcome,
  body=excluded.body;
`
	_, err = s.db.ExecContext(context.Background(), stmt,
		record.ID,
		string(record.Kind),
		record.StartedAt.UTC().Format(sortableTime),
		record.Status,
		string(record.Outcome),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", record.ID, err)
	}
	return nil
}

// Load reads one record by ID.
func (s *SQLiteStore) Load(runID string) (*RunRecord, error) {
	var body string
	err := s.db.QueryRowContext(context.Background(), `SELECT body FROM runs WHERE id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return decodeRecord(body)
}

// List returns records ordered by start time, newest first.
func (s *SQLiteStore) List(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT body FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeRecord(body string) (*RunRecord, error) {
	var r RunRecord
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("unmarshalling run: %w", err)
	}
	return &r, nil
}
