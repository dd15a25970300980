//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"genesearch/internal/model"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS snapshots_run ON snapshots (run_id, round)`,
	},
	upsertRun: `
		INSERT INTO runs (id, schema_version, codec_version, started_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			started_at = excluded.started_at,
			payload = excluded.payload
	`,
	selectRun: `SELECT payload FROM runs WHERE id = ?`,
	listRuns:  `SELECT payload FROM runs ORDER BY started_at, id`,
	upsertSnapshot: `
		INSERT INTO snapshots (id, run_id, round, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			round = excluded.round,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`,
	selectSnapshot: `SELECT payload FROM snapshots WHERE id = ?`,
	listSnapshots:  `SELECT payload FROM snapshots WHERE run_id = ? ORDER BY round, id`,
}

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db, sqliteDialect); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return saveRun(ctx, db, sqliteDialect, run)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}
	return getRun(ctx, db, sqliteDialect, id)
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listRuns(ctx, db, sqliteDialect)
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot model.ImpactSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return saveSnapshot(ctx, db, sqliteDialect, snapshot)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (model.ImpactSnapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ImpactSnapshot{}, false, err
	}
	return getSnapshot(ctx, db, sqliteDialect, id)
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, runID string) ([]model.ImpactSnapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listSnapshots(ctx, db, sqliteDialect, runID)
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}
