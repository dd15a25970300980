package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"genesearch/pkg/genesearch"
)

const librarySchema = "../../internal/graphql/testdata/library.json"

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"mutate"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestSynthCommandListsActions(t *testing.T) {
	output, err := captureStdout(func() error {
		return run(context.Background(), []string{"synth", "--schema", librarySchema, "--documents"})
	})
	if err != nil {
		t.Fatalf("synth command: %v", err)
	}
	for _, want := range []string{"id=addBook4 type=mutation params=input", "id=book1 type=query params=id", "mutation { addBook("} {
		if !strings.Contains(output, want) {
			t.Fatalf("synth output missing %q: %s", want, output)
		}
	}
}

func TestSynthCommandJSON(t *testing.T) {
	output, err := captureStdout(func() error {
		return run(context.Background(), []string{"synth", "--schema", librarySchema, "--json"})
	})
	if err != nil {
		t.Fatalf("synth command: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(output), &items); err != nil {
		t.Fatalf("decode synth output: %v", err)
	}
	if len(items) != 4 || items[0]["id"] != "addBook4" {
		t.Fatalf("unexpected synth items: %v", items)
	}
}

func TestSynthCommandRequiresSchema(t *testing.T) {
	if err := run(context.Background(), []string{"synth"}); err == nil {
		t.Fatal("expected schema required error")
	}
}

func TestEvolveCommandMemoryStore(t *testing.T) {
	output, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"evolve",
			"--store", "memory",
			"--schema", librarySchema,
			"--rounds", "12",
			"--actions", "2",
			"--seed", "5",
			"--setup", "addBook",
			"--json",
		})
	})
	if err != nil {
		t.Fatalf("evolve command: %v", err)
	}
	var summary struct {
		RunID       string   `json:"run_id"`
		Rounds      int      `json:"rounds"`
		BestTotal   float64  `json:"best_total"`
		SnapshotIDs []string `json:"snapshot_ids"`
		Actions     []struct {
			Operation string `json:"operation"`
		} `json:"actions"`
	}
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("decode evolve output: %v", err)
	}
	if summary.RunID == "" || summary.Rounds != 12 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.BestTotal <= 0 {
		t.Fatalf("expected some coverage, got %f", summary.BestTotal)
	}
	if len(summary.SnapshotIDs) != 2 {
		t.Fatalf("expected snapshots at rounds 10 and 12, got %v", summary.SnapshotIDs)
	}
	if len(summary.Actions) == 0 {
		t.Fatal("expected final actions")
	}
}

func TestEvolveCommandConfigAllowsFlagOverrides(t *testing.T) {
	path := writeConfig(t, "evolve.yaml", "schema: "+librarySchema+"\nrounds: 50\nseed: 9\nmutation:\n  strategy: default\n")
	output, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"evolve",
			"--store", "memory",
			"--config", path,
			"--rounds", "3",
		})
	})
	if err != nil {
		t.Fatalf("evolve command: %v", err)
	}
	if !strings.Contains(output, "rounds=3 ") {
		t.Fatalf("expected flag override of rounds: %s", output)
	}
	if !strings.Contains(output, "action ") {
		t.Fatalf("expected final actions in output: %s", output)
	}
}

func TestEvolveCommandValidation(t *testing.T) {
	if err := run(context.Background(), []string{"evolve", "--store", "memory"}); err == nil {
		t.Fatal("expected schema required error")
	}
	err := run(context.Background(), []string{"evolve", "--store", "memory", "--schema", librarySchema, "--strategy", "random"})
	if err == nil {
		t.Fatal("expected invalid strategy error")
	}
}

func TestActionCoverage(t *testing.T) {
	fitness := actionCoverage([]string{"addBook4", "book1"})
	got, err := fitness(context.Background(), genesearch.Evaluation{
		Actions: []genesearch.EvaluatedAction{
			{ActionID: "book1", Operation: "book", Document: "query { book(id: \"a\") {id} }"},
			{ActionID: "book1", Operation: "book", Document: "query { book(id: \"a\") {id} }"},
		},
	})
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if got[1] != 0 || got[2] != 1 || got[3] != 0.5 {
		t.Fatalf("unexpected fitness: %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fitness(ctx, genesearch.Evaluation{}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" addBook, ,book ")
	if len(got) != 2 || got[0] != "addBook" || got[1] != "book" {
		t.Fatalf("unexpected list: %v", got)
	}
	if splitList("") != nil {
		t.Fatal("expected nil for empty list")
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
