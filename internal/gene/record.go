package gene

import (
	"fmt"

	"genesearch/internal/impact"
)

// RecordImpact credits outcomes to imp, the record of mutated, and to every
// part of it whose value differs from original.
func RecordImpact(original, mutated Gene, imp *impact.GeneImpact, outcomes map[int]impact.Outcome) error {
	if imp == nil {
		return nil
	}
	imp.Update(outcomes)

	switch m := mutated.(type) {
	case *DateGene:
		o, ok := original.(*DateGene)
		if !ok {
			return mismatch(m, original)
		}
		if imp.Date == nil {
			return fmt.Errorf("%w: date gene %s", ErrImpactKindMismatch, m.name)
		}
		if m.year.value != o.year.value {
			imp.Date.Year.Update(outcomes)
		}
		if m.month.value != o.month.value {
			imp.Date.Month.Update(outcomes)
		}
		if m.day.value != o.day.value {
			imp.Date.Day.Update(outcomes)
		}
	case *ObjectGene:
		o, ok := original.(*ObjectGene)
		if !ok {
			return mismatch(m, original)
		}
		if imp.Object == nil {
			return fmt.Errorf("%w: object gene %s", ErrImpactKindMismatch, m.name)
		}
		for _, f := range m.fields {
			before := o.Field(f.Name())
			if before == nil || sameValue(before, f) {
				continue
			}
			if err := RecordImpact(before, f, fieldImpact(imp, f), outcomes); err != nil {
				return err
			}
		}
	case *ArrayGene:
		o, ok := original.(*ArrayGene)
		if !ok {
			return mismatch(m, original)
		}
		if imp.Array == nil {
			return fmt.Errorf("%w: array gene %s", ErrImpactKindMismatch, m.name)
		}
		if len(m.elements) != len(o.elements) {
			imp.Array.Size.Update(outcomes)
			return nil
		}
		for i, e := range m.elements {
			if sameValue(o.elements[i], e) {
				continue
			}
			return RecordImpact(o.elements[i], e, imp.Array.Element, outcomes)
		}
	case *OptionalGene:
		o, ok := original.(*OptionalGene)
		if !ok {
			return mismatch(m, original)
		}
		if imp.Optional == nil {
			return fmt.Errorf("%w: optional gene %s", ErrImpactKindMismatch, m.name)
		}
		if m.active != o.active {
			imp.Optional.Presence.Update(outcomes)
			return nil
		}
		if imp.Optional.Inner == nil {
			imp.Optional.Inner = m.inner.NewImpact(impact.PartID(imp.ID, "inner"))
		}
		if !sameValue(o.inner, m.inner) {
			return RecordImpact(o.inner, m.inner, imp.Optional.Inner, outcomes)
		}
	}
	return nil
}
