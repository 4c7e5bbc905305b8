package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists checkpoints to MySQL, for deployments that already
// run a MySQL instance. Adapted from graph/store/mysql.go the same way
// SQLiteStore is adapted from graph/store/sqlite.go; schema matches
// SQLiteStore's so both implementations satisfy the same contract with
// the same semantics.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens dsn (a go-sql-driver/mysql DSN) and ensures the
// schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	s := &MySQLStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS thread_metadata (
	namespace   VARCHAR(128) NOT NULL,
	thread_id   VARCHAR(128) NOT NULL,
	graph_name  VARCHAR(128) NOT NULL,
	created_at  BIGINT NOT NULL,
	last_active BIGINT NOT NULL,
	expires_at  BIGINT NOT NULL,
	latest_ckpt VARCHAR(128),
	terminal    TINYINT NOT NULL DEFAULT 0,
	PRIMARY KEY (namespace, thread_id)
)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
CREATE TABLE IF NOT EXISTS checkpoints (
	namespace     VARCHAR(128) NOT NULL,
	thread_id     VARCHAR(128) NOT NULL,
	checkpoint_id VARCHAR(128) NOT NULL,
	graph_name    VARCHAR(128) NOT NULL,
	step          INT NOT NULL,
	state_json    LONGTEXT NOT NULL,
	suspended     TINYINT NOT NULL,
	label         VARCHAR(255),
	ts            BIGINT NOT NULL,
	PRIMARY KEY (namespace, thread_id, checkpoint_id)
)`)
	return err
}

func (s *MySQLStore) Put(ctx context.Context, ckpt Checkpoint, ttl time.Duration) error {
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
ON DUPLICATE KEY UPDATE state_json=VALUES(state_json), suspended=VALUES(suspended), label=VALUES(label), ts=VALUES(ts)`,
		ns, ckpt.ThreadID, ckpt.CheckpointID, ckpt.GraphName, ckpt.Step, string(stateJSON), boolToInt(ckpt.Suspended), ckpt.Label, ckpt.Timestamp.UnixMilli())
	if err != nil {
		return err
	}

	expiresAt := now.Add(ttl).UnixMilli()
	_, err = tx.ExecContext(ctx, `
INSERT INTO thread_metadata (namespace, thread_id, graph_name, created_at, last_active, expires_at, latest_ckpt, terminal)
VALUES (?, ?, ?, ?, ?, ?, ?, 0)
ON DUPLICATE KEY UPDATE last_active=VALUES(last_active), expires_at=VALUES(expires_at), latest_ckpt=VALUES(latest_ckpt)`,
		ns, ckpt.ThreadID, ckpt.GraphName, now.UnixMilli(), now.UnixMilli(), expiresAt, ckpt.CheckpointID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *MySQLStore) GetLatest(ctx context.Context, namespace, threadID string, extendOnAccess bool, ttl time.Duration) (Checkpoint, error) {
	var latestID string
	err := s.db.QueryRowContext(ctx, `SELECT latest_ckpt FROM thread_metadata WHERE namespace=? AND thread_id=?`, namespace, threadID).Scan(&latestID)
	if err == sql.ErrNoRows || latestID == "" {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	ckpt, err := s.Get(ctx, namespace, threadID, latestID)
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

func (s *MySQLStore) Get(ctx context.Context, namespace, threadID, checkpointID string) (Checkpoint, error) {
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

func (s *MySQLStore) List(ctx context.Context, namespace, threadID string) ([]string, error) {
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

func (s *MySQLStore) Metadata(ctx context.Context, namespace, threadID string) (ThreadMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT graph_name, created_at, last_active, expires_at, latest_ckpt, terminal
FROM thread_metadata WHERE namespace=? AND thread_id=?`, namespace, threadID)

	var (
		graphName, latestCkpt            string
		createdAt, lastActive, expiresAt int64
		terminal                         int
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

func (s *MySQLStore) MarkTerminal(ctx context.Context, namespace, threadID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE thread_metadata SET terminal=1 WHERE namespace=? AND thread_id=?`, namespace, threadID)
	return err
}

func (s *MySQLStore) Close() error { return s.db.Close() }
