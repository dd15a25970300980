package gene

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newSampleTree() *ObjectGene {
	tags := NewArrayGene("tags", NewStringGene("tag", ""), DefaultMaxArraySize)
	_ = tags.AddElement(NewStringGene("tag", "a"))
	_ = tags.AddElement(NewStringGene("tag", "b"))

	address := NewObjectGene("address", []Gene{
		NewStringGene("street", "main"),
		NewIntegerGene("number", 7, 1, 999),
	}, "Address")

	return NewObjectGene("user", []Gene{
		NewIntegerGene("age", 30, 0, 120),
		NewFloatGene("score", 1.5),
		NewBooleanGene("admin", false),
		NewDateGene("born", true),
		tags,
		NewOptionalGene("address", address),
		NewCycleGene("friend", "User"),
	}, "User")
}

func assertParentLinks(t *testing.T, root Gene) {
	t.Helper()
	for g := range FlatView(root, nil) {
		for _, child := range g.Children() {
			if child.Parent() != g {
				t.Fatalf("child %q of %q has parent %v", child.Name(), g.Name(), child.Parent())
			}
		}
		if arr, ok := g.(*ArrayGene); ok && arr.Template().Parent() != g {
			t.Fatalf("template of %q is not parented to it", g.Name())
		}
	}
}

func TestCopyDetachesRootAndKeepsParentLinks(t *testing.T) {
	tree := newSampleTree()
	assertParentLinks(t, tree)

	inner := tree.Field("address").(*OptionalGene).Inner()
	cp := inner.Copy()
	if cp.Parent() != nil {
		t.Fatalf("expected detached copy, got parent=%v", cp.Parent())
	}
	assertParentLinks(t, cp)

	full := tree.Copy()
	if full.Parent() != nil {
		t.Fatal("expected detached copy of root")
	}
	assertParentLinks(t, full)
	for g := range FlatView(full, nil) {
		if g != full && Root(g) != full {
			t.Fatalf("gene %q does not reach the copied root", g.Name())
		}
	}
}

func TestCopyContainsSameValueUntilMutated(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := newSampleTree()
	if err := tree.Randomize(rng, false, nil); err != nil {
		t.Fatalf("randomize: %v", err)
	}
	cp := tree.Copy()
	same, err := cp.ContainsSameValueAs(tree)
	if err != nil || !same {
		t.Fatalf("expected copy to hold the same value: same=%t err=%v", same, err)
	}

	mc := &MutationContext{Rand: rng}
	if err := StandardMutation(cp, mc, nil); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	same, err = cp.ContainsSameValueAs(tree)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if same {
		t.Fatal("expected mutated copy to diverge")
	}
}

func TestVariantMismatchIsRejected(t *testing.T) {
	cases := []struct {
		name  string
		this  Gene
		other Gene
	}{
		{name: "integer", this: NewInteger("a"), other: NewStringGene("a", "")},
		{name: "float", this: NewFloatGene("a", 0), other: NewInteger("a")},
		{name: "boolean", this: NewBooleanGene("a", true), other: NewFloatGene("a", 0)},
		{name: "string", this: NewStringGene("a", ""), other: NewBooleanGene("a", true)},
		{name: "date", this: NewDateGene("a", false), other: NewInteger("a")},
		{name: "array", this: NewArrayGene("a", NewInteger("e"), 3), other: NewOptionalGene("a", NewInteger("e"))},
		{name: "object", this: NewObjectGene("a", nil, ""), other: NewArrayGene("a", NewInteger("e"), 3)},
		{name: "optional", this: NewOptionalGene("a", NewInteger("e")), other: NewInteger("e")},
		{name: "cycle", this: NewCycleGene("a", "A"), other: NewInteger("a")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.this.CopyValueFrom(tc.other); !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("expected type mismatch from CopyValueFrom, got %v", err)
			}
			if _, err := tc.this.ContainsSameValueAs(tc.other); !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("expected type mismatch from ContainsSameValueAs, got %v", err)
			}
		})
	}
}

func TestEmptyNamePanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName panic, got %v", r)
		}
	}()
	NewBooleanGene(" ", true)
}

func TestDateRandomizeProducesOnlyValidDates(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := NewDateGene("d", true)
	for i := 0; i < 10000; i++ {
		if err := g.Randomize(rng, false, nil); err != nil {
			t.Fatalf("randomize #%d: %v", i, err)
		}
		if _, err := time.Parse(time.DateOnly, g.RawString()); err != nil {
			t.Fatalf("randomize #%d produced invalid date %s", i, g.RawString())
		}
		if g.year.value == 2001 && g.month.value == 2 && g.day.value == 29 {
			t.Fatalf("randomize #%d produced 2001-02-29", i)
		}
	}
}

func TestDateRangesAdmitInvalidDatesWhenUnconstrained(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewDateGene("d", false)
	invalid := 0
	for i := 0; i < 1000; i++ {
		if err := g.Randomize(rng, false, nil); err != nil {
			t.Fatalf("randomize: %v", err)
		}
		if !g.IsValid() {
			invalid++
		}
	}
	if invalid == 0 {
		t.Fatal("expected some invalid dates without the validity constraint")
	}
}

func TestDateMutationStaysValid(t *testing.T) {
	for _, strategy := range []SelectionStrategy{SelectDefault, SelectDeterministicWeight, SelectAdaptiveWeight} {
		rng := rand.New(rand.NewSource(11))
		g := NewDateGeneFrom("d", 2004, 2, 29, true)
		mc := &MutationContext{Rand: rng, Strategy: strategy, Weights: WeightControl{D: 0.5}}
		info := &SelectionInfo{Impact: g.NewImpact("d")}
		for i := 0; i < 1000; i++ {
			if err := StandardMutation(g, mc, info); err != nil {
				t.Fatalf("%s mutation #%d: %v", strategy, i, err)
			}
			if !g.IsValid() {
				t.Fatalf("%s mutation #%d left invalid date %s", strategy, i, g.RawString())
			}
		}
	}
}

func TestDateCopyValueFromRejectsInvalidSource(t *testing.T) {
	g := NewDateGene("d", true)
	src := NewDateGeneFrom("d", 2001, 2, 29, false)
	if err := g.CopyValueFrom(src); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value error, got %v", err)
	}
	if g.RawString() != "2016-03-12" {
		t.Fatalf("expected untouched value, got %s", g.RawString())
	}
	if err := NewDateGene("d", false).CopyValueFrom(src); err != nil {
		t.Fatalf("unconstrained copy: %v", err)
	}
}

func TestDateAdaptiveSelectionRequiresDateImpact(t *testing.T) {
	g := NewDateGene("d", false)
	mc := &MutationContext{Rand: rand.New(rand.NewSource(1)), Strategy: SelectAdaptiveWeight}
	info := &SelectionInfo{Impact: NewInteger("x").NewImpact("x")}
	if err := StandardMutation(g, mc, info); !errors.Is(err, ErrImpactKindMismatch) {
		t.Fatalf("expected impact kind mismatch, got %v", err)
	}
	if err := StandardMutation(g, mc, nil); err != nil {
		t.Fatalf("expected fallback to static weights without impact, got %v", err)
	}
}

func TestStandardMutationAlwaysChangesValue(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	strategies := []SelectionStrategy{SelectDefault, SelectDeterministicWeight, SelectAdaptiveWeight}
	for i := 0; i < 300; i++ {
		tree := newSampleTree()
		if err := tree.Randomize(rng, false, nil); err != nil {
			t.Fatalf("randomize: %v", err)
		}
		before := tree.Copy()

		mc := &MutationContext{Rand: rng, Strategy: strategies[i%len(strategies)], Weights: WeightControl{D: 0.3}}
		info := &SelectionInfo{Impact: tree.NewImpact("user")}
		if err := StandardMutation(tree, mc, info); err != nil {
			t.Fatalf("mutation #%d: %v", i, err)
		}
		if sameValue(before, tree) {
			t.Fatalf("mutation #%d left the value unchanged: %s", i, tree.RawString())
		}
	}
}

func TestValidOnlyDateMutationAlwaysChangesValue(t *testing.T) {
	g := NewDateGeneFrom("d", 2001, 2, 28, true)
	retries := 0
	mc := &MutationContext{
		Rand:     rand.New(rand.NewSource(1)),
		Strategy: SelectDefault,
		OnRetry:  func(Gene) { retries++ },
	}
	for i := 0; i < 2000; i++ {
		before := g.Copy()
		if err := StandardMutation(g, mc, nil); err != nil {
			t.Fatalf("mutation #%d: %v", i, err)
		}
		if sameValue(before, g) {
			t.Fatalf("mutation #%d kept %s", i, g.RawString())
		}
		if !g.IsValid() {
			t.Fatalf("mutation #%d left invalid date %s", i, g.RawString())
		}
	}
	if retries == 0 {
		t.Fatal("expected invalid or unchanged dates to be retried")
	}
}

func TestDateMutateHonorsRetryBound(t *testing.T) {
	g := NewDateGeneFrom("d", 2001, 2, 28, true)
	g.month.min, g.month.max = 13, 14
	g.month.value = 13

	mc := &MutationContext{Rand: rand.New(rand.NewSource(2)), MaxRetries: 3}
	_, err := g.Mutate(mc, nil)
	if !errors.Is(err, ErrValidValueNotFound) || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("expected bound of 3 attempts, got %v", err)
	}

	mc.MaxRetries = 0
	_, err = g.Mutate(mc, nil)
	if !errors.Is(err, ErrValidValueNotFound) || !strings.Contains(err.Error(), "after 1000 attempts") {
		t.Fatalf("expected default bound, got %v", err)
	}
}

func TestArrayRejectsForeignElementVariant(t *testing.T) {
	ints := NewArrayGene("xs", NewInteger("x"), 3)
	strs := NewArrayGene("xs", NewStringGene("x", ""), 3)
	for _, withElements := range []bool{false, true} {
		if withElements {
			if err := strs.AddElement(NewStringGene("x", "a")); err != nil {
				t.Fatalf("add element: %v", err)
			}
		}
		if err := ints.CopyValueFrom(strs); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("elements=%t: expected type mismatch from CopyValueFrom, got %v", withElements, err)
		}
		if same, err := ints.ContainsSameValueAs(strs); same || !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("elements=%t: expected type mismatch from ContainsSameValueAs, got same=%t err=%v", withElements, same, err)
		}
	}
	if len(ints.Elements()) != 0 {
		t.Fatalf("rejected copy changed elements: %d", len(ints.Elements()))
	}
}

func TestArrayDetachesDiscardedElements(t *testing.T) {
	arr := NewArrayGene("xs", NewIntegerGene("x", 0, 0, 100), 3)
	for _, v := range []int64{1, 2, 3} {
		if err := arr.AddElement(NewIntegerGene("x", v, 0, 100)); err != nil {
			t.Fatalf("add element: %v", err)
		}
	}
	rng := rand.New(rand.NewSource(4))

	view := arr.Elements()
	kept := append([]Gene(nil), view...)
	if _, err := arr.Mutate(&MutationContext{Rand: rng}, nil); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if len(arr.Elements()) != 2 {
		t.Fatalf("expected a full array to shrink, got %d elements", len(arr.Elements()))
	}
	detached := 0
	for i, e := range kept {
		if view[i] != e {
			t.Fatalf("removal rewrote element %d of an earlier Elements slice", i)
		}
		if e.Parent() == nil {
			detached++
		}
	}
	if detached != 1 {
		t.Fatalf("expected the removed element to be detached, got %d", detached)
	}

	view = arr.Elements()
	kept = append([]Gene(nil), view...)
	if err := arr.Randomize(rng, true, nil); err != nil {
		t.Fatalf("randomize: %v", err)
	}
	for i, e := range kept {
		if view[i] != e {
			t.Fatalf("randomize rewrote element %d of an earlier Elements slice", i)
		}
		if e.Parent() != nil {
			t.Fatalf("discarded element %d is still parented", i)
		}
	}
	assertParentLinks(t, arr)
}

func TestObjectCopyValueFromIsAllOrNothing(t *testing.T) {
	dst := NewObjectGene("o", []Gene{NewIntegerGene("a", 1, 0, 10), NewDateGene("d", true)}, "O")
	cases := []struct {
		name string
		src  Gene
		want error
	}{
		{
			name: "invalid date",
			src:  NewObjectGene("o", []Gene{NewIntegerGene("a", 7, 0, 10), NewDateGeneFrom("d", 2001, 2, 29, false)}, "O"),
			want: ErrInvalidValue,
		},
		{
			name: "field variant",
			src:  NewObjectGene("o", []Gene{NewIntegerGene("a", 9, 0, 10), NewStringGene("d", "x")}, "O"),
			want: ErrTypeMismatch,
		},
	}
	for _, tc := range cases {
		if err := dst.CopyValueFrom(tc.src); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if got := dst.Field("a").(*IntegerGene).Value(); got != 1 {
			t.Fatalf("%s: failed copy wrote field a: %d", tc.name, got)
		}
	}

	good := NewObjectGene("o", []Gene{NewIntegerGene("a", 7, 0, 10), NewDateGeneFrom("d", 2001, 2, 28, false)}, "O")
	if err := dst.CopyValueFrom(good); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !sameValue(dst, good) {
		t.Fatalf("unexpected value after copy: %s", dst.RawString())
	}
}

func TestStandardMutationReportsUnimplementedLeaf(t *testing.T) {
	fixed := NewIntegerGene("fixed", 3, 3, 3)
	mc := &MutationContext{Rand: rand.New(rand.NewSource(1))}
	if err := StandardMutation(fixed, mc, nil); !errors.Is(err, ErrLeafMutationNotImplemented) {
		t.Fatalf("expected leaf mutation error, got %v", err)
	}
	if err := StandardMutation(fixed, &MutationContext{}, nil); !errors.Is(err, ErrRandomSourceRequired) {
		t.Fatalf("expected missing random source error, got %v", err)
	}
}

func TestRetryBoundIsReported(t *testing.T) {
	g := NewDateGeneFrom("d", 2001, 2, 28, true)
	g.month.min, g.month.max = 13, 14
	g.month.value = 13
	retries := 0
	mc := &MutationContext{
		Rand:       rand.New(rand.NewSource(5)),
		MaxRetries: 20,
		OnRetry:    func(Gene) { retries++ },
	}
	err := StandardMutation(g, mc, nil)
	if !errors.Is(err, ErrValidValueNotFound) {
		t.Fatalf("expected retry bound error, got %v", err)
	}
	if retries != 19 {
		t.Fatalf("unexpected retry count: %d", retries)
	}
}

func TestFlatViewPrunesAndRestarts(t *testing.T) {
	tree := newSampleTree()
	isDate := func(g Gene) bool {
		_, ok := g.(*DateGene)
		return ok
	}

	count := func(exclude func(Gene) bool) int {
		n := 0
		for range FlatView(tree, exclude) {
			n++
		}
		return n
	}
	all := count(nil)
	pruned := count(isDate)
	if all-pruned != 3 {
		t.Fatalf("expected the three date parts to be pruned: all=%d pruned=%d", all, pruned)
	}
	if again := count(nil); again != all {
		t.Fatalf("expected restartable traversal: first=%d second=%d", all, again)
	}

	var first []string
	for g := range FlatView(tree, nil) {
		first = append(first, g.Name())
		if len(first) == 2 {
			break
		}
	}
	if !reflect.DeepEqual(first, []string{"user", "age"}) {
		t.Fatalf("unexpected traversal prefix: %v", first)
	}
}

func TestPathAndRoot(t *testing.T) {
	tree := newSampleTree()
	street := tree.Field("address").(*OptionalGene).Inner().(*ObjectGene).Field("street")
	if got := Path(street); !reflect.DeepEqual(got, []string{"user", "address", "address", "street"}) {
		t.Fatalf("unexpected path: %v", got)
	}
	if Root(street) != Gene(tree) {
		t.Fatal("expected root lookup to reach the tree root")
	}
}

func TestParseSelectionStrategy(t *testing.T) {
	for _, s := range []SelectionStrategy{SelectDefault, SelectDeterministicWeight, SelectAdaptiveWeight} {
		got, err := ParseSelectionStrategy(s.String())
		if err != nil || got != s {
			t.Fatalf("round trip %s: got=%v err=%v", s, got, err)
		}
	}
	if _, err := ParseSelectionStrategy("greedy"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected unknown strategy error, got %v", err)
	}
}
