package gene

import (
	"math/rand"

	"genesearch/internal/impact"
)

// CycleGene terminates the expansion of a type already being expanded
// higher up the same path. It carries no value.
type CycleGene struct {
	base
	refType string
}

func NewCycleGene(name, refType string) *CycleGene {
	return &CycleGene{base: newBase(name), refType: refType}
}

func (g *CycleGene) RefType() string { return g.refType }

func (g *CycleGene) IsMutable() bool { return false }

func (g *CycleGene) IsPrintable() bool { return false }

func (g *CycleGene) Copy() Gene {
	return &CycleGene{base: g.detached(), refType: g.refType}
}

func (g *CycleGene) Randomize(*rand.Rand, bool, []Gene) error { return nil }

func (g *CycleGene) Mutate(*MutationContext, *SelectionInfo) (bool, error) { return false, nil }

func (g *CycleGene) PrintableString(PrintOptions) string { return "" }

func (g *CycleGene) RawString() string { return "" }

func (g *CycleGene) CopyValueFrom(other Gene) error {
	if _, ok := other.(*CycleGene); !ok {
		return mismatch(g, other)
	}
	return nil
}

func (g *CycleGene) ContainsSameValueAs(other Gene) (bool, error) {
	if _, ok := other.(*CycleGene); !ok {
		return false, mismatch(g, other)
	}
	return true, nil
}

func (g *CycleGene) NewImpact(id string) *impact.GeneImpact { return impact.New(id) }
