package gene

import (
	"fmt"
	"math/rand"
	"strings"

	"genesearch/internal/impact"
)

const DefaultMaxArraySize = 5

// Probability of a size change when an array has mutable elements.
const structuralMutationProbability = 0.1

// ArrayGene is an ordered sequence of copies of a template gene.
type ArrayGene struct {
	base
	template Gene
	elements []Gene
	maxSize  int
}

func NewArrayGene(name string, template Gene, maxSize int) *ArrayGene {
	if maxSize < 0 {
		maxSize = 0
	}
	g := &ArrayGene{base: newBase(name), template: template, maxSize: maxSize}
	adopt(g, template)
	return g
}

func (g *ArrayGene) Template() Gene { return g.template }

func (g *ArrayGene) Elements() []Gene { return g.elements }

func (g *ArrayGene) MaxSize() int { return g.maxSize }

// AddElement appends e, which must be a copy of the template variant.
func (g *ArrayGene) AddElement(e Gene) error {
	if !sameVariant(e, g.template) {
		return mismatch(g.template, e)
	}
	if len(g.elements) >= g.maxSize {
		return fmt.Errorf("%w: array %s is full (%d)", ErrInvalidValue, g.name, g.maxSize)
	}
	adopt(g, e)
	g.elements = append(g.elements, e)
	return nil
}

func (g *ArrayGene) IsMutable() bool { return g.maxSize > 0 }

func (g *ArrayGene) MutationWeight() float64 {
	n := len(g.elements)
	if n < 1 {
		n = 1
	}
	return g.template.MutationWeight() * float64(n)
}

func (g *ArrayGene) Copy() Gene {
	cp := &ArrayGene{base: g.detached(), template: g.template.Copy(), maxSize: g.maxSize}
	adopt(cp, cp.template)
	cp.elements = copyAll(cp, g.elements)
	return cp
}

func (g *ArrayGene) Children() []Gene { return g.elements }

func (g *ArrayGene) Randomize(rng *rand.Rand, forceNewValue bool, allGenes []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	if !g.IsMutable() {
		return nil
	}
	n := rng.Intn(g.maxSize + 1)
	if forceNewValue && n == len(g.elements) && n == 0 {
		n = 1
	}
	for _, e := range g.elements {
		e.setParent(nil)
	}
	g.elements = nil
	for range n {
		if err := g.addRandomElement(rng, allGenes); err != nil {
			return err
		}
	}
	return nil
}

func (g *ArrayGene) CandidatesInternalGenes(mc *MutationContext, _ *SelectionInfo) []Gene {
	if len(g.elements) == 0 || mc.Rand.Float64() < structuralMutationProbability {
		return nil
	}
	var out []Gene
	for _, e := range g.elements {
		if e.IsMutable() {
			out = append(out, e)
		}
	}
	return out
}

// AdaptiveSelectSubset weighs elements by the shared element impact.
func (g *ArrayGene) AdaptiveSelectSubset(mc *MutationContext, candidates []Gene, info *SelectionInfo) ([]Selected, error) {
	if info == nil || info.Impact == nil || info.Impact.Array == nil {
		return nil, fmt.Errorf("%w: array gene %s", ErrImpactKindMismatch, g.name)
	}
	impacts := make([]*impact.GeneImpact, len(candidates))
	for i := range candidates {
		impacts[i] = info.Impact.Array.Element
	}
	return selectByImpact(candidates, impacts, mc, info)
}

// Mutate changes the size of the array by one element.
func (g *ArrayGene) Mutate(mc *MutationContext, _ *SelectionInfo) (bool, error) {
	if !g.IsMutable() {
		return false, nil
	}
	n := len(g.elements)
	grow := n == 0 || (n < g.maxSize && mc.Rand.Intn(2) == 0)
	if grow {
		return true, g.addRandomElement(mc.Rand, mc.AllGenes)
	}
	i := mc.Rand.Intn(n)
	g.elements[i].setParent(nil)
	kept := make([]Gene, 0, n-1)
	kept = append(kept, g.elements[:i]...)
	g.elements = append(kept, g.elements[i+1:]...)
	return true, nil
}

func (g *ArrayGene) addRandomElement(rng *rand.Rand, allGenes []Gene) error {
	e := g.template.Copy()
	if err := e.Randomize(rng, false, allGenes); err != nil {
		return err
	}
	adopt(g, e)
	g.elements = append(g.elements, e)
	return nil
}

func (g *ArrayGene) PrintableString(opts PrintOptions) string {
	if opts.Mode == EscapeGraphQL {
		return g.template.PrintableString(opts)
	}
	sep := ", "
	if opts.Mode == EscapeJSON {
		sep = ","
	}
	parts := make([]string, 0, len(g.elements))
	for _, e := range g.elements {
		if e.IsPrintable() {
			parts = append(parts, e.PrintableString(opts))
		}
	}
	return "[" + strings.Join(parts, sep) + "]"
}

func (g *ArrayGene) RawString() string {
	parts := make([]string, len(g.elements))
	for i, e := range g.elements {
		parts[i] = e.RawString()
	}
	return strings.Join(parts, ",")
}

func (g *ArrayGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*ArrayGene)
	if !ok {
		return mismatch(g, other)
	}
	if !sameVariant(o.template, g.template) {
		return mismatch(g.template, o.template)
	}
	if len(o.elements) > g.maxSize {
		return fmt.Errorf("%w: %d elements exceed max size %d of %s", ErrInvalidValue, len(o.elements), g.maxSize, g.name)
	}
	for _, e := range g.elements {
		e.setParent(nil)
	}
	g.elements = copyAll(g, o.elements)
	return nil
}

func (g *ArrayGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*ArrayGene)
	if !ok {
		return false, mismatch(g, other)
	}
	if !sameVariant(o.template, g.template) {
		return false, mismatch(g.template, o.template)
	}
	if len(g.elements) != len(o.elements) {
		return false, nil
	}
	for i := range g.elements {
		same, err := g.elements[i].ContainsSameValueAs(o.elements[i])
		if err != nil || !same {
			return false, err
		}
	}
	return true, nil
}

func (g *ArrayGene) NewImpact(id string) *impact.GeneImpact {
	return impact.NewArray(id, g.template.NewImpact(impact.PartID(id, "element")))
}

// sameVariant reports whether a and b are the same gene variant.
func sameVariant(a, b Gene) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

func copyAll(parent Gene, genes []Gene) []Gene {
	if genes == nil {
		return nil
	}
	out := make([]Gene, len(genes))
	for i, e := range genes {
		out[i] = e.Copy()
	}
	adopt(parent, out...)
	return out
}
