package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"genesearch/internal/model"
)

// dialect holds the statements a database/sql backend runs. Arguments are
// bound in the order the helpers below pass them.
type dialect struct {
	ddl            []string
	upsertRun      string
	selectRun      string
	listRuns       string
	upsertSnapshot string
	selectSnapshot string
	listSnapshots  string
}

func createTables(ctx context.Context, db *sql.DB, d dialect) error {
	for _, stmt := range d.ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func saveRun(ctx context.Context, db *sql.DB, d dialect, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, d.upsertRun,
		run.ID, run.SchemaVersion, run.CodecVersion, run.StartedAt.UnixNano(), string(payload))
	return err
}

func getRun(ctx context.Context, db *sql.DB, d dialect, id string) (model.RunRecord, bool, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, d.selectRun, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunRecord{}, false, nil
	}
	if err != nil {
		return model.RunRecord{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func listRuns(ctx context.Context, db *sql.DB, d dialect) ([]model.RunRecord, error) {
	rows, err := db.QueryContext(ctx, d.listRuns)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func saveSnapshot(ctx context.Context, db *sql.DB, d dialect, snapshot model.ImpactSnapshot) error {
	payload, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, d.upsertSnapshot,
		snapshot.ID, snapshot.RunID, snapshot.Round, snapshot.SchemaVersion, snapshot.CodecVersion, string(payload))
	return err
}

func getSnapshot(ctx context.Context, db *sql.DB, d dialect, id string) (model.ImpactSnapshot, bool, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, d.selectSnapshot, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ImpactSnapshot{}, false, nil
	}
	if err != nil {
		return model.ImpactSnapshot{}, false, err
	}
	snapshot, err := DecodeSnapshot(payload)
	if err != nil {
		return model.ImpactSnapshot{}, false, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snapshot, true, nil
}

func listSnapshots(ctx context.Context, db *sql.DB, d dialect, runID string) ([]model.ImpactSnapshot, error) {
	rows, err := db.QueryContext(ctx, d.listSnapshots, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ImpactSnapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		snapshot, err := DecodeSnapshot(payload)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot of run %s: %w", runID, err)
		}
		out = append(out, snapshot)
	}
	return out, rows.Err()
}
