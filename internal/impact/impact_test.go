package impact

import (
	"reflect"
	"testing"
)

func TestCountersUpdateClassifiesPerTarget(t *testing.T) {
	imp := New("a>>x")
	imp.Update(map[int]Outcome{1: Better, 2: Equal, 3: Worse})
	imp.Update(map[int]Outcome{1: Equal})

	if imp.TimesToManipulate != 2 {
		t.Fatalf("expected 2 manipulations, got=%d", imp.TimesToManipulate)
	}
	if imp.TimesOfNoImpact != 1 {
		t.Fatalf("expected 1 no-impact round, got=%d", imp.TimesOfNoImpact)
	}
	if imp.Improved[1] != 1 || imp.Worse[3] != 1 || imp.NoImpact[1] != 1 || imp.NoImpact[2] != 1 {
		t.Fatalf("unexpected counters: %+v", imp.Counters)
	}
	if got := imp.ImpactfulTargets(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("unexpected impactful targets: %v", got)
	}
	if got := imp.NoImpactTargets(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("unexpected no-impact targets: %v", got)
	}
	if !imp.Impactful() {
		t.Fatal("expected impactful record")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	imp := NewDate("d")
	imp.Date.Year.Update(map[int]Outcome{7: Better})

	cp := imp.Copy()
	cp.Date.Year.Update(map[int]Outcome{7: Better})

	if imp.Date.Year.Improved[7] != 1 {
		t.Fatalf("copy mutated the original: %+v", imp.Date.Year.Counters)
	}
	if cp.Date.Year.Improved[7] != 2 {
		t.Fatalf("unexpected copy counters: %+v", cp.Date.Year.Counters)
	}
	if cp.Kind() != KindDate {
		t.Fatalf("expected date kind, got=%s", cp.Kind())
	}
}

func TestPartsVisitsNestedRecords(t *testing.T) {
	imp := NewOptional("o", NewArray(PartID("o", "inner"), NewDate("o/inner/element")))
	var ids []string
	imp.Parts(func(p *GeneImpact) { ids = append(ids, p.ID) })

	want := []string{
		"o/presence",
		"o/inner",
		"o/inner/size",
		"o/inner/element",
		"o/inner/element/year",
		"o/inner/element/month",
		"o/inner/element/day",
	}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected parts:\n got=%v\nwant=%v", ids, want)
	}
}

func TestWeightsFavorImprovingCandidates(t *testing.T) {
	a := New("a")
	b := New("b")
	b.Update(map[int]Outcome{1: Better})
	b.Update(map[int]Outcome{1: Better})

	weights, err := Weights([]float64{1, 1}, []*GeneImpact{a, b}, nil)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	if weights[0] != 1 || weights[1] != 3 {
		t.Fatalf("unexpected weights: %v", weights)
	}

	weights, err = Weights([]float64{2, 5}, []*GeneImpact{a, nil}, []int{1})
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	if weights[0] != 2 || weights[1] != 5 {
		t.Fatalf("expected static weights on tie, got=%v", weights)
	}

	if _, err := Weights([]float64{1}, nil, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestClassify(t *testing.T) {
	got := Classify(
		map[int]float64{1: 0.5, 2: 0.5, 3: 1, 4: 0},
		map[int]float64{1: 0.7, 2: 0.5, 5: 0.1},
	)
	want := map[int]Outcome{1: Better, 2: Equal, 3: Worse, 4: Equal, 5: Better}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected outcomes: %v", got)
	}
}
