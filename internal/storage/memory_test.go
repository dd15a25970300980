package storage

import (
	"context"
	"testing"
	"time"

	"genesearch/internal/impact"
	"genesearch/internal/model"
)

func sampleRun(id string, start time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Seed:            7,
		Strategy:        "adaptive_weight",
		Rounds:          2,
		StartedAt:       start,
		FinishedAt:      start.Add(time.Second),
		BestTotal:       1.25,
		Operators:       map[string]int{"gene_mutation": 2},
		History:         []float64{1, 1.25},
	}
}

func sampleSnapshot(id, runID string, round int) model.ImpactSnapshot {
	imp := impact.New("getUser>>id")
	imp.Update(map[int]impact.Outcome{1: impact.Better})
	return model.ImpactSnapshot{
		VersionedRecord: Versioned(),
		ID:              id,
		RunID:           runID,
		Round:           round,
		Actions: []model.ActionImpactRecord{{
			ActionName:  "getUser",
			GeneImpacts: []*impact.GeneImpact{imp},
		}},
		Reached: map[int]float64{1: 0.5},
	}
}

// exerciseStore runs the same round trip against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := store.SaveRun(ctx, sampleRun("run-b", base.Add(time.Minute))); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, sampleRun("run-a", base)); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || run.BestTotal != 1.25 || run.Operators["gene_mutation"] != 2 {
		t.Fatalf("unexpected run: ok=%t %+v", ok, run)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got ok=%t err=%v", ok, err)
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected run order: %+v", runs)
	}

	for _, snap := range []model.ImpactSnapshot{
		sampleSnapshot("s2", "run-a", 2),
		sampleSnapshot("s0", "run-a", 0),
		sampleSnapshot("s-other", "run-b", 1),
	} {
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("save snapshot %s: %v", snap.ID, err)
		}
	}
	snap, ok, err := store.GetSnapshot(ctx, "s2")
	if err != nil || !ok {
		t.Fatalf("get snapshot: ok=%t err=%v", ok, err)
	}
	if got := snap.Actions[0].GeneImpacts[0]; got.Improved[1] != 1 {
		t.Fatalf("unexpected snapshot impact: %+v", got)
	}
	snaps, err := store.ListSnapshots(ctx, "run-a")
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "s0" || snaps[1].ID != "s2" {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}

	updated := sampleSnapshot("s2", "run-a", 3)
	if err := store.SaveSnapshot(ctx, updated); err != nil {
		t.Fatalf("overwrite snapshot: %v", err)
	}
	snap, _, err = store.GetSnapshot(ctx, "s2")
	if err != nil || snap.Round != 3 {
		t.Fatalf("expected overwritten snapshot, got round %d err=%v", snap.Round, err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), sampleRun("r", time.Now())); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}

func TestMemoryStoreReturnsIndependentValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	snap := sampleSnapshot("s", "r", 0)
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Actions[0].GeneImpacts[0].Improved[1] = 99

	loaded, _, err := store.GetSnapshot(ctx, "s")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Actions[0].GeneImpacts[0].Improved[1] != 1 {
		t.Fatal("stored snapshot aliases the saved value")
	}
}
