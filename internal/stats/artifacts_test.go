package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"genesearch/internal/model"
)

func TestWriteRunArtifactsRoundTrip(t *testing.T) {
	run := model.RunRecord{
		ID:        "run-1",
		Seed:      7,
		Strategy:  "adaptive_weight",
		Rounds:    3,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		BestTotal: 1.5,
		History:   []float64{0.5, 1.5, 1.5},
	}
	snaps := []model.ImpactSnapshot{
		{ID: "s-1", RunID: "run-1", Round: 2},
		{ID: "s-2", RunID: "run-1", Round: 3},
	}

	dir, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{Run: run, Snapshots: snaps})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, name := range []string{"run.json", "fitness_history.csv", "snapshots/round_000002.json", "snapshots/round_000003.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected artifact %s: %v", name, err)
		}
	}

	got, ok, err := ReadRun(dir)
	if err != nil || !ok {
		t.Fatalf("read run: ok=%t err=%v", ok, err)
	}
	if got.ID != run.ID || got.Seed != run.Seed || !got.StartedAt.Equal(run.StartedAt) {
		t.Fatalf("unexpected run: %+v", got)
	}

	series, ok, err := ReadFitnessHistory(dir)
	if err != nil || !ok {
		t.Fatalf("read history: ok=%t err=%v", ok, err)
	}
	if len(series) != 3 || series[1] != 1.5 {
		t.Fatalf("unexpected series: %v", series)
	}
}

func TestWriteRunArtifactsValidation(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{
		Run:       model.RunRecord{ID: "a"},
		Snapshots: []model.ImpactSnapshot{{ID: "s", RunID: "b"}},
	})
	if err == nil {
		t.Fatal("expected foreign snapshot error")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	if _, ok, err := ReadRun(dir); ok || err != nil {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadFitnessHistory(dir); ok || err != nil {
		t.Fatalf("expected missing history, ok=%t err=%v", ok, err)
	}
}

func TestSummarizeHistory(t *testing.T) {
	s := SummarizeHistory([]float64{0.2, 0.2, 0.8, 0.8, 0.8})
	if s.Rounds != 5 || s.First != 0.2 || s.Best != 0.8 || s.FirstBestRound != 3 || s.Plateaus != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if empty := SummarizeHistory(nil); empty.Rounds != 0 || empty.FirstBestRound != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}
