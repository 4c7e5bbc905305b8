package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists checkpoints to a SQLite database. Adapted from
// graph/store/sqlite.go: same modernc.org/sqlite driver and WAL-mode
// setup, schema narrowed to the thread_id/checkpoint_id/namespace layout
// this engine's Store contract requires instead of the teacher's
// step/idempotency/outbox tables (those belong to the intra-run
// concurrent scheduler this engine doesn't use).
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS thread_metadata (
	namespace   TEXT NOT NULL,
	thread_id   TEXT NOT NULL,
	graph_name  TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	last_active INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL,
	latest_ckpt TEXT,
	terminal    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (namespace, thread_id)
);
CREATE TABLE IF NOT EXISTS checkpoints (
	namespace     TEXT NOT NULL,
	thread_id     TEXT NOT NULL,
	checkpoint_id TEXT NOT NULL,
	graph_name    TEXT NOT NULL,
	step          INTEGER NOT NULL,
	state_json    TEXT NOT NULL,
	suspended     INTEGER NOT NULL,
	label         TEXT,
	ts            INTEGER NOT NULL,
	PRIMARY KEY (namespace, thread_id, checkpoint_id)
);
`)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, ckpt Checkpoint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stateJSON, err := json.Marshal(ckpt.State)
	if err != nil {
		return err
	}
	now := time.Now()
	if ckpt.Timestamp.IsZero() {
		ckpt.Timestamp = now
	}
	ns := DefaultNamespace

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO checkpoints (namespace, thread_id, checkpoint_id, graph_name, step, state_json, suspended, label, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(namespace, thread_id, checkpoint_id) DO UPDATE SET
	state_json=excluded.state_json, suspended=excluded.suspended, label=excluded.label, ts=excluded.ts`,
		ns, ckpt.ThreadID, ckpt.CheckpointID, ckpt.GraphName, ckpt.Step, string(stateJSON), boolToInt(ckpt.Suspended), ckpt.Label, ckpt.Timestamp.UnixMilli())
	if err != nil {
		return err
	}

	var exists int
	_ = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM thread_metadata WHERE namespace=? AND thread_id=?`, ns, ckpt.ThreadID).Scan(&exists)

	expiresAt := now.Add(ttl).UnixMilli()
	if exists == 0 {
		_, err = tx.ExecContext(ctx, `
INSERT INTO thread_metadata (namespace, thread_id, graph_name, created_at, last_active, expires_at, latest_ckpt, terminal)
VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			ns, ckpt.ThreadID, ckpt.GraphName, now.UnixMilli(), now.UnixMilli(), expiresAt, ckpt.CheckpointID)
	} else {
		_, err = tx.ExecContext(ctx, `
UPDATE thread_metadata SET last_active=?, expires_at=?, latest_ckpt=? WHERE namespace=? AND thread_id=?`,
			now.UnixMilli(), expiresAt, ckpt.CheckpointID, ns, ckpt.ThreadID)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetLatest(ctx context.Context, namespace, threadID string, extendOnAccess bool, ttl time.Duration) (Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latestID string
	err := s.db.QueryRowContext(ctx, `SELECT latest_ckpt FROM thread_metadata WHERE namespace=? AND thread_id=?`, namespace, threadID).Scan(&latestID)
	if err == sql.ErrNoRows || latestID == "" {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	ckpt, err := s.getLocked(ctx, namespace, threadID, latestID)
	if err != nil {
		return Checkpoint{}, err
	}
	if extendOnAccess {
		now := time.Now()
		_, _ = s.db.ExecContext(ctx, `UPDATE thread_metadata SET last_active=?, expires_at=? WHERE namespace=? AND thread_id=?`,
			now.UnixMilli(), now.Add(ttl).UnixMilli(), namespace, threadID)
	}
	return ckpt, nil
}

func (s *SQLiteStore) Get(ctx context.Context, namespace, threadID, checkpointID string) (Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, namespace, threadID, checkpointID)
}

func (s *SQLiteStore) getLocked(ctx context.Context, namespace, threadID, checkpointID string) (Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT graph_name, step, state_json, suspended, label, ts FROM checkpoints
WHERE namespace=? AND thread_id=? AND checkpoint_id=?`, namespace, threadID, checkpointID)

	var (
		graphName, stateJSON, label string
		step, suspended             int
		ts                          int64
	)
	if err := row.Scan(&graphName, &step, &stateJSON, &suspended, &label, &ts); err != nil {
		if err == sql.ErrNoRows {
			return Checkpoint{}, ErrNotFound
		}
		return Checkpoint{}, err
	}
	var st map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{
		ThreadID:     threadID,
		CheckpointID: checkpointID,
		GraphName:    graphName,
		Step:         step,
		State:        st,
		Suspended:    suspended != 0,
		Label:        label,
		Timestamp:    time.UnixMilli(ts),
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context, namespace, threadID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `
SELECT checkpoint_id FROM checkpoints WHERE namespace=? AND thread_id=? ORDER BY ts ASC`, namespace, threadID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Metadata(ctx context.Context, namespace, threadID string) (ThreadMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `
SELECT graph_name, created_at, last_active, expires_at, latest_ckpt, terminal
FROM thread_metadata WHERE namespace=? AND thread_id=?`, namespace, threadID)

	var (
		graphName, latestCkpt             string
		createdAt, lastActive, expiresAt  int64
		terminal                          int
	)
	if err := row.Scan(&graphName, &createdAt, &lastActive, &expiresAt, &latestCkpt, &terminal); err != nil {
		if err == sql.ErrNoRows {
			return ThreadMetadata{}, ErrNotFound
		}
		return ThreadMetadata{}, err
	}
	return ThreadMetadata{
		ThreadID:   threadID,
		GraphName:  graphName,
		CreatedAt:  time.UnixMilli(createdAt),
		LastActive: time.UnixMilli(lastActive),
		ExpiresAt:  time.UnixMilli(expiresAt),
		LatestCkpt: latestCkpt,
		Terminal:   terminal != 0,
	}, nil
}

func (s *SQLiteStore) MarkTerminal(ctx context.Context, namespace, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `UPDATE thread_metadata SET terminal=1 WHERE namespace=? AND thread_id=?`, namespace, threadID)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
