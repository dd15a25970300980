package storage

import (
	"context"

	"genesearch/internal/model"
)

// Store persists run summaries and the impact snapshots taken during runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run ordered by start time.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSnapshot(ctx context.Context, snapshot model.ImpactSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.ImpactSnapshot, bool, error)
	// ListSnapshots returns the snapshots of a run ordered by round.
	ListSnapshots(ctx context.Context, runID string) ([]model.ImpactSnapshot, error)
}
