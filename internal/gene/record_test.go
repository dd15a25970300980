package gene

import (
	"testing"

	"genesearch/internal/impact"
)

func TestRecordImpactCreditsChangedParts(t *testing.T) {
	before := NewObjectGene("o", []Gene{
		NewDateGeneFrom("d", 2020, 5, 10, true),
		NewIntegerGene("n", 1, 0, 9),
		NewOptionalGene("opt", NewBooleanGene("b", false)),
	}, "")
	after := before.Copy().(*ObjectGene)
	after.Field("d").(*DateGene).Month().value = 6
	after.Field("opt").(*OptionalGene).SetActive(false)

	imp := before.NewImpact("a>>o")
	outcomes := map[int]impact.Outcome{1: impact.Better}
	if err := RecordImpact(before, after, imp, outcomes); err != nil {
		t.Fatalf("record: %v", err)
	}

	if imp.Improved[1] != 1 {
		t.Fatalf("expected root credit, got %+v", imp.Counters)
	}
	date := imp.Object.Fields["d"]
	if date.Improved[1] != 1 || date.Date.Month.Improved[1] != 1 {
		t.Fatalf("expected date month credit: %+v %+v", date.Counters, date.Date.Month.Counters)
	}
	if date.Date.Year.TimesToManipulate != 0 || date.Date.Day.TimesToManipulate != 0 {
		t.Fatal("unchanged date parts must not be credited")
	}
	if imp.Object.Fields["n"].TimesToManipulate != 0 {
		t.Fatal("unchanged field must not be credited")
	}
	opt := imp.Object.Fields["opt"]
	if opt.Optional.Presence.Improved[1] != 1 || opt.Optional.Inner.TimesToManipulate != 0 {
		t.Fatalf("expected presence credit only: %+v", opt.Optional)
	}
}

func TestRecordImpactArraySizeAndElement(t *testing.T) {
	arr := NewArrayGene("xs", NewIntegerGene("x", 0, 0, 100), 4)
	for _, v := range []int64{3, 4} {
		if err := arr.AddElement(NewIntegerGene("x", v, 0, 100)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	grown := arr.Copy().(*ArrayGene)
	if err := grown.AddElement(NewIntegerGene("x", 5, 0, 100)); err != nil {
		t.Fatalf("add: %v", err)
	}
	imp := arr.NewImpact("xs")
	if err := RecordImpact(arr, grown, imp, map[int]impact.Outcome{2: impact.Worse}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if imp.Array.Size.Worse[2] != 1 || imp.Array.Element.TimesToManipulate != 0 {
		t.Fatalf("expected size credit only: %+v", imp.Array)
	}

	changed := arr.Copy().(*ArrayGene)
	if err := changed.Elements()[1].(*IntegerGene).SetValue(40); err != nil {
		t.Fatalf("set: %v", err)
	}
	imp = arr.NewImpact("xs")
	if err := RecordImpact(arr, changed, imp, map[int]impact.Outcome{2: impact.Better}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if imp.Array.Element.Improved[2] != 1 || imp.Array.Size.TimesToManipulate != 0 {
		t.Fatalf("expected element credit only: %+v", imp.Array)
	}
}

func TestRecordImpactRejectsWrongKind(t *testing.T) {
	d := NewDateGene("d", false)
	if err := RecordImpact(d, d.Copy(), impact.New("d"), nil); err == nil {
		t.Fatal("expected impact kind mismatch")
	}
}
