package gene

import (
	"fmt"
	"math/rand"
	"strings"

	"genesearch/internal/impact"
)

// ObjectGene is an ordered set of named fields. refType names the schema
// type the object was built from, if any.
type ObjectGene struct {
	base
	fields  []Gene
	refType string
}

func NewObjectGene(name string, fields []Gene, refType string) *ObjectGene {
	g := &ObjectGene{base: newBase(name), fields: fields, refType: refType}
	adopt(g, fields...)
	return g
}

func (g *ObjectGene) Fields() []Gene { return g.fields }

func (g *ObjectGene) RefType() string { return g.refType }

// Field returns the field called name, or nil.
func (g *ObjectGene) Field(name string) Gene {
	for _, f := range g.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (g *ObjectGene) IsMutable() bool {
	for _, f := range g.fields {
		if f.IsMutable() {
			return true
		}
	}
	return false
}

func (g *ObjectGene) MutationWeight() float64 {
	sum := 0.0
	for _, f := range g.fields {
		if f.IsMutable() {
			sum += f.MutationWeight()
		}
	}
	if sum < 1 {
		return 1
	}
	return sum
}

func (g *ObjectGene) Copy() Gene {
	cp := &ObjectGene{base: g.detached(), refType: g.refType}
	cp.fields = copyAll(cp, g.fields)
	return cp
}

func (g *ObjectGene) Children() []Gene { return g.fields }

func (g *ObjectGene) Randomize(rng *rand.Rand, forceNewValue bool, allGenes []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	for _, f := range g.fields {
		if !f.IsMutable() {
			continue
		}
		if err := f.Randomize(rng, forceNewValue, allGenes); err != nil {
			return err
		}
	}
	return nil
}

func (g *ObjectGene) CandidatesInternalGenes(*MutationContext, *SelectionInfo) []Gene {
	var out []Gene
	for _, f := range g.fields {
		if f.IsMutable() {
			out = append(out, f)
		}
	}
	return out
}

// AdaptiveSelectSubset weighs fields by their own impact records, creating
// records for fields first seen here.
func (g *ObjectGene) AdaptiveSelectSubset(mc *MutationContext, candidates []Gene, info *SelectionInfo) ([]Selected, error) {
	if info == nil || info.Impact == nil || info.Impact.Object == nil {
		return nil, fmt.Errorf("%w: object gene %s", ErrImpactKindMismatch, g.name)
	}
	impacts := make([]*impact.GeneImpact, len(candidates))
	for i, c := range candidates {
		impacts[i] = fieldImpact(info.Impact, c)
	}
	return selectByImpact(candidates, impacts, mc, info)
}

func fieldImpact(obj *impact.GeneImpact, field Gene) *impact.GeneImpact {
	imp, ok := obj.Object.Fields[field.Name()]
	if !ok {
		imp = field.NewImpact(impact.PartID(obj.ID, field.Name()))
		obj.Object.Fields[field.Name()] = imp
	}
	return imp
}

func (g *ObjectGene) Mutate(*MutationContext, *SelectionInfo) (bool, error) {
	return false, nil
}

func (g *ObjectGene) PrintableString(opts PrintOptions) string {
	if opts.Mode == EscapeGraphQL {
		return g.selectionSet(opts)
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for _, f := range g.fields {
		if !f.IsPrintable() {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(quote(f.Name(), FormatNone))
		sb.WriteByte(':')
		sb.WriteString(f.PrintableString(opts))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (g *ObjectGene) selectionSet(opts PrintOptions) string {
	names := make([]string, 0, len(g.fields))
	for _, f := range g.fields {
		if !f.IsPrintable() || !selectable(f) {
			continue
		}
		names = append(names, f.Name()+selection(f, opts))
	}
	return "{" + strings.Join(names, " ") + "}"
}

// selectable reports whether g still leads to a printable value once its
// optional and list wrappers are removed.
func selectable(g Gene) bool {
	switch v := g.(type) {
	case *OptionalGene:
		return selectable(v.inner)
	case *ArrayGene:
		return selectable(v.template)
	default:
		return g.IsPrintable()
	}
}

// SelectionSet prints the GraphQL selection g needs, empty for scalars.
func SelectionSet(g Gene) string {
	return selection(g, PrintOptions{Mode: EscapeGraphQL})
}

// selection returns the sub-selection a field of g's kind needs, empty for
// scalar values.
func selection(g Gene, opts PrintOptions) string {
	switch v := g.(type) {
	case *ObjectGene:
		return v.selectionSet(opts)
	case *ArrayGene:
		return selection(v.template, opts)
	case *OptionalGene:
		return selection(v.inner, opts)
	default:
		return ""
	}
}

func (g *ObjectGene) RawString() string {
	return g.PrintableString(PrintOptions{Mode: EscapeJSON})
}

func (g *ObjectGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*ObjectGene)
	if !ok {
		return mismatch(g, other)
	}
	if len(o.fields) != len(g.fields) {
		return fmt.Errorf("%w: object %s has %d fields, source has %d", ErrTypeMismatch, g.name, len(g.fields), len(o.fields))
	}
	staged := g.Copy().(*ObjectGene)
	for i, f := range staged.fields {
		if err := f.CopyValueFrom(o.fields[i]); err != nil {
			return err
		}
	}
	for i, f := range g.fields {
		if err := f.CopyValueFrom(staged.fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ObjectGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*ObjectGene)
	if !ok {
		return false, mismatch(g, other)
	}
	if len(o.fields) != len(g.fields) {
		return false, nil
	}
	for i, f := range g.fields {
		same, err := f.ContainsSameValueAs(o.fields[i])
		if err != nil || !same {
			return false, err
		}
	}
	return true, nil
}

func (g *ObjectGene) NewImpact(id string) *impact.GeneImpact {
	fields := make(map[string]*impact.GeneImpact, len(g.fields))
	for _, f := range g.fields {
		fields[f.Name()] = f.NewImpact(impact.PartID(id, f.Name()))
	}
	return impact.NewObject(id, fields)
}
