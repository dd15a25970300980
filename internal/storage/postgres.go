package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"genesearch/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	ddl: []string{
		`CREATE TABLE IF NOT EXISTS genesearch_runs (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			started_at BIGINT NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS genesearch_snapshots (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS genesearch_snapshots_run ON genesearch_snapshots (run_id, round)`,
	},
	upsertRun: `
		INSERT INTO genesearch_runs (id, schema_version, codec_version, started_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			codec_version = EXCLUDED.codec_version,
			started_at = EXCLUDED.started_at,
			payload = EXCLUDED.payload
	`,
	selectRun: `SELECT payload FROM genesearch_runs WHERE id = $1`,
	listRuns:  `SELECT payload FROM genesearch_runs ORDER BY started_at, id`,
	upsertSnapshot: `
		INSERT INTO genesearch_snapshots (id, run_id, round, schema_version, codec_version, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			round = EXCLUDED.round,
			schema_version = EXCLUDED.schema_version,
			codec_version = EXCLUDED.codec_version,
			payload = EXCLUDED.payload
	`,
	selectSnapshot: `SELECT payload FROM genesearch_snapshots WHERE id = $1`,
	listSnapshots:  `SELECT payload FROM genesearch_snapshots WHERE run_id = $1 ORDER BY round, id`,
}

// PostgresStore persists records as JSONB through the pgx database/sql
// driver.
type PostgresStore struct {
	dsn string

	mu sync.RWMutex
	db *sql.DB
}

func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{dsn: dsn}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dsn == "" {
		return errors.New("postgres dsn is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := createTables(ctx, db, postgresDialect); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return saveRun(ctx, db, postgresDialect, run)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}
	return getRun(ctx, db, postgresDialect, id)
}

func (s *PostgresStore) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listRuns(ctx, db, postgresDialect)
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snapshot model.ImpactSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return saveSnapshot(ctx, db, postgresDialect, snapshot)
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (model.ImpactSnapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ImpactSnapshot{}, false, err
	}
	return getSnapshot(ctx, db, postgresDialect, id)
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, runID string) ([]model.ImpactSnapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listSnapshots(ctx, db, postgresDialect, runID)
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *PostgresStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}
