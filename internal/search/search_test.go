package search

import (
	"errors"
	"reflect"
	"testing"

	"genesearch/internal/gene"
)

func mustCall(t *testing.T, name string, genes ...gene.Gene) *Call {
	t.Helper()
	c, err := NewCall(name, genes...)
	if err != nil {
		t.Fatalf("new call %s: %v", name, err)
	}
	return c
}

func actionNames(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Name()
	}
	return out
}

func TestTestCaseStructuralEdits(t *testing.T) {
	tc := NewTestCase(mustCall(t, "a"), mustCall(t, "c"))
	if err := tc.InsertAction(1, mustCall(t, "b")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := actionNames(tc.Actions()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected actions: %v", got)
	}
	if _, err := tc.RemoveAction(3); !errors.Is(err, ErrActionIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	removed, err := tc.RemoveAction(0)
	if err != nil || removed.Name() != "a" {
		t.Fatalf("unexpected remove: %v %v", removed, err)
	}
	if err := tc.InsertAction(5, mustCall(t, "z")); !errors.Is(err, ErrActionIndexOutOfRange) {
		t.Fatalf("expected out of range insert, got %v", err)
	}
	if _, err := NewCall(""); !errors.Is(err, ErrEmptyActionName) {
		t.Fatalf("expected empty name error, got %v", err)
	}
}

func TestTruncateInitializationDropsEmptyGroups(t *testing.T) {
	tc := NewTestCase()
	tc.AddInitialization(mustCall(t, "A"), mustCall(t, "B"))
	tc.AddInitialization(mustCall(t, "A"), mustCall(t, "B"))
	tc.AddInitialization(mustCall(t, "C"))

	tc.TruncateInitialization(3)
	if got := actionNames(tc.InitializingActions()); !reflect.DeepEqual(got, []string{"A", "B", "A"}) {
		t.Fatalf("unexpected initialization: %v", got)
	}
	if len(tc.InitializationGroups()) != 2 {
		t.Fatalf("expected two groups, got %d", len(tc.InitializationGroups()))
	}
}

func TestTestCaseCopyIsDeep(t *testing.T) {
	n := gene.NewIntegerGene("n", 1, 0, 10)
	tc := NewTestCase(mustCall(t, "a", n))
	tc.AddInitialization(mustCall(t, "I", gene.NewBooleanGene("b", true)))

	cp := tc.Copy()
	if err := cp.Calls()[0].Genes()[0].(*gene.IntegerGene).SetValue(9); err != nil {
		t.Fatalf("set: %v", err)
	}
	if n.Value() != 1 {
		t.Fatalf("copy shares genes with original: %d", n.Value())
	}
	if len(cp.Genes()) != 2 {
		t.Fatalf("expected initialization and action genes, got %d", len(cp.Genes()))
	}
}

func TestFitnessHelpers(t *testing.T) {
	f := Fitness{3: 1, 1: 0.5, 2: 1}
	if f.Total() != 2.5 {
		t.Fatalf("unexpected total: %f", f.Total())
	}
	if got := f.Covered(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("unexpected covered: %v", got)
	}
	cp := f.Copy()
	cp[1] = 0.9
	if f[1] != 0.5 {
		t.Fatal("copy shares storage with original")
	}
}
