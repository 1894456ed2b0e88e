package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists revisions to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a SQLite store.
// The path should be a file path (e.g., "./flows.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Writes are serialised by mu; one connection keeps ":memory:"
	// databases shared between calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_revisions (
			flow_id TEXT NOT NULL,
			revision INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (flow_id, revision)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, flowID string, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var rev int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(revision), 0) + 1 FROM flow_revisions WHERE flow_id = ?
	`, flowID).Scan(&rev); err != nil {
		return 0, fmt.Errorf("next revision: %w", err)
	}

	if data == nil {
		data = []byte{}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO flow_revisions (flow_id, revision, timestamp, data)
		VALUES (?, ?, ?, ?)
	`, flowID, rev, time.Now().UTC().Format(time.RFC3339Nano), data); err != nil {
		return 0, fmt.Errorf("save flow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return rev, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, flowID string) ([]byte, error) {
	return s.queryData(ctx, `
		SELECT data FROM flow_revisions
		WHERE flow_id = ?
		ORDER BY revision DESC
		LIMIT 1
	`, flowID)
}

// LoadRevision implements Store.
func (s *SQLiteStore) LoadRevision(ctx context.Context, flowID string, rev int) ([]byte, error) {
	return s.queryData(ctx, `
		SELECT data FROM flow_revisions
		WHERE flow_id = ? AND revision = ?
	`, flowID, rev)
}

func (s *SQLiteStore) queryData(ctx context.Context, query string, args ...any) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, flowID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT revision, timestamp, LENGTH(data)
		FROM flow_revisions
		WHERE flow_id = ?
		ORDER BY revision
	`, flowID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{FlowID: flowID}
		var timestamp string
		if err := rows.Scan(&info.Revision, &timestamp, &info.Size); err != nil {
			return nil, fmt.Errorf("scan revision info: %w", err)
		}
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM flow_revisions WHERE flow_id = ?`, flowID); err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
