package gene

import (
	"fmt"
	"math/rand"

	"genesearch/internal/impact"
)

// Probability of toggling presence instead of mutating the inner gene.
const presenceToggleProbability = 0.1

// OptionalGene wraps one inner gene that may be absent.
type OptionalGene struct {
	base
	inner  Gene
	active bool
}

func NewOptionalGene(name string, inner Gene) *OptionalGene {
	g := &OptionalGene{base: newBase(name), inner: inner, active: true}
	adopt(g, inner)
	return g
}

func (g *OptionalGene) Inner() Gene { return g.inner }

func (g *OptionalGene) IsActive() bool { return g.active }

func (g *OptionalGene) SetActive(active bool) { g.active = active }

func (g *OptionalGene) IsPrintable() bool { return g.active && g.inner.IsPrintable() }

func (g *OptionalGene) MutationWeight() float64 { return g.inner.MutationWeight() }

func (g *OptionalGene) Copy() Gene {
	cp := &OptionalGene{base: g.detached(), inner: g.inner.Copy(), active: g.active}
	adopt(cp, cp.inner)
	return cp
}

func (g *OptionalGene) Children() []Gene { return []Gene{g.inner} }

func (g *OptionalGene) Randomize(rng *rand.Rand, forceNewValue bool, allGenes []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	if g.inner.IsMutable() {
		if err := g.inner.Randomize(rng, forceNewValue, allGenes); err != nil {
			return err
		}
	}
	if forceNewValue && !g.inner.IsMutable() {
		g.active = !g.active
		return nil
	}
	g.active = rng.Intn(5) != 0
	return nil
}

func (g *OptionalGene) CandidatesInternalGenes(mc *MutationContext, _ *SelectionInfo) []Gene {
	if !g.active || !g.inner.IsMutable() || mc.Rand.Float64() < presenceToggleProbability {
		return nil
	}
	return []Gene{g.inner}
}

func (g *OptionalGene) AdaptiveSelectSubset(mc *MutationContext, candidates []Gene, info *SelectionInfo) ([]Selected, error) {
	if info == nil || info.Impact == nil || info.Impact.Optional == nil {
		return nil, fmt.Errorf("%w: optional gene %s", ErrImpactKindMismatch, g.name)
	}
	parts := info.Impact.Optional
	if parts.Inner == nil {
		parts.Inner = g.inner.NewImpact(impact.PartID(info.Impact.ID, "inner"))
	}
	impacts := make([]*impact.GeneImpact, len(candidates))
	for i := range candidates {
		impacts[i] = parts.Inner
	}
	return selectByImpact(candidates, impacts, mc, info)
}

// Mutate toggles presence.
func (g *OptionalGene) Mutate(*MutationContext, *SelectionInfo) (bool, error) {
	g.active = !g.active
	return true, nil
}

func (g *OptionalGene) PrintableString(opts PrintOptions) string {
	if !g.active {
		return "null"
	}
	return g.inner.PrintableString(opts)
}

func (g *OptionalGene) RawString() string {
	if !g.active {
		return "null"
	}
	return g.inner.RawString()
}

func (g *OptionalGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*OptionalGene)
	if !ok {
		return mismatch(g, other)
	}
	if err := g.inner.CopyValueFrom(o.inner); err != nil {
		return err
	}
	g.active = o.active
	return nil
}

func (g *OptionalGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*OptionalGene)
	if !ok {
		return false, mismatch(g, other)
	}
	if g.active != o.active {
		return false, nil
	}
	return g.inner.ContainsSameValueAs(o.inner)
}

func (g *OptionalGene) NewImpact(id string) *impact.GeneImpact {
	return impact.NewOptional(id, g.inner.NewImpact(impact.PartID(id, "inner")))
}
