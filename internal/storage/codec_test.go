package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"genesearch/internal/impact"
	"genesearch/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-fixture-1" || run.Seed != 42 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Operators["structure_mutation"] != 1 || len(run.History) != 3 {
		t.Fatalf("unexpected run details: %+v", run)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !run.StartedAt.Equal(want) {
		t.Fatalf("unexpected start: %s", run.StartedAt)
	}
}

func TestDecodeSnapshotFixture(t *testing.T) {
	snapshot, err := DecodeSnapshot(readFixture(t, "snapshot_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if snapshot.RunID != "run-fixture-1" || snapshot.Round != 2 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if len(snapshot.Actions) != 1 || len(snapshot.Actions[0].GeneImpacts) != 1 {
		t.Fatalf("unexpected action impacts: %+v", snapshot.Actions)
	}
	born := snapshot.Actions[0].GeneImpacts[0]
	if born.Kind() != impact.KindDate {
		t.Fatalf("expected date impact, got %s", born.Kind())
	}
	if born.Date.Day.Improved[1] != 1 {
		t.Fatalf("expected day improvement on target 1: %+v", born.Date.Day)
	}
	if !born.Impactful() {
		t.Fatal("expected impactful date record")
	}
	if snapshot.Reached[1] != 0.75 {
		t.Fatalf("unexpected reached targets: %v", snapshot.Reached)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeSnapshot(readFixture(t, "snapshot_v0.json"))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	_, err = DecodeRun([]byte(`{"schema_version":1,"codec_version":2,"id":"r"}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestSnapshotEncodeDecodeKeepsTypedImpacts(t *testing.T) {
	arr := impact.NewArray("a>>tags", impact.New(impact.PartID("a>>tags", "element")))
	arr.Array.Size.Update(map[int]impact.Outcome{3: impact.Better})
	in := model.ImpactSnapshot{
		VersionedRecord: Versioned(),
		ID:              "s1",
		RunID:           "r1",
		Actions: []model.ActionImpactRecord{{
			ActionName:  "a",
			GeneImpacts: []*impact.GeneImpact{arr},
		}},
	}
	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := out.Actions[0].GeneImpacts[0]
	if got.Kind() != impact.KindArray || got.Array.Size.Improved[3] != 1 {
		t.Fatalf("array impact lost its parts: %+v", got)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
