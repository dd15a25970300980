package gene

import (
	"math/rand"
	"strconv"

	"genesearch/internal/impact"
)

type BooleanGene struct {
	base
	value bool
}

func NewBooleanGene(name string, value bool) *BooleanGene {
	return &BooleanGene{base: newBase(name), value: value}
}

func (g *BooleanGene) Value() bool { return g.value }

func (g *BooleanGene) SetValue(v bool) { g.value = v }

func (g *BooleanGene) Copy() Gene {
	return &BooleanGene{base: g.detached(), value: g.value}
}

func (g *BooleanGene) Randomize(rng *rand.Rand, forceNewValue bool, _ []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	if forceNewValue {
		g.value = !g.value
		return nil
	}
	g.value = rng.Intn(2) == 0
	return nil
}

func (g *BooleanGene) Mutate(*MutationContext, *SelectionInfo) (bool, error) {
	g.value = !g.value
	return true, nil
}

func (g *BooleanGene) PrintableString(PrintOptions) string { return g.RawString() }

func (g *BooleanGene) RawString() string { return strconv.FormatBool(g.value) }

func (g *BooleanGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*BooleanGene)
	if !ok {
		return mismatch(g, other)
	}
	g.value = o.value
	return nil
}

func (g *BooleanGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*BooleanGene)
	if !ok {
		return false, mismatch(g, other)
	}
	return g.value == o.value, nil
}

func (g *BooleanGene) NewImpact(id string) *impact.GeneImpact { return impact.New(id) }
