package gene

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"genesearch/internal/impact"
)

type FloatGene struct {
	base
	value float64
}

func NewFloatGene(name string, value float64) *FloatGene {
	return &FloatGene{base: newBase(name), value: value}
}

func (g *FloatGene) Value() float64 { return g.value }

func (g *FloatGene) SetValue(v float64) { g.value = v }

func (g *FloatGene) Copy() Gene {
	return &FloatGene{base: g.detached(), value: g.value}
}

func (g *FloatGene) Randomize(rng *rand.Rand, forceNewValue bool, _ []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	for {
		v := (rng.Float64()*2 - 1) * 1000
		if !forceNewValue || v != g.value {
			g.value = v
			return nil
		}
	}
}

func (g *FloatGene) Mutate(mc *MutationContext, _ *SelectionInfo) (bool, error) {
	if mc.Rand.Float64() < 0.1 {
		return true, g.Randomize(mc.Rand, true, mc.AllGenes)
	}
	delta := mc.Rand.NormFloat64()
	if delta == 0 {
		delta = 1
	}
	next := g.value + delta
	if next == g.value || math.IsInf(next, 0) || math.IsNaN(next) {
		next = g.value - math.Copysign(math.Max(1, math.Abs(g.value)/2), g.value)
	}
	g.value = next
	return true, nil
}

func (g *FloatGene) PrintableString(PrintOptions) string { return g.RawString() }

func (g *FloatGene) RawString() string {
	s := strconv.FormatFloat(g.value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func (g *FloatGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*FloatGene)
	if !ok {
		return mismatch(g, other)
	}
	g.value = o.value
	return nil
}

func (g *FloatGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*FloatGene)
	if !ok {
		return false, mismatch(g, other)
	}
	return g.value == o.value, nil
}

func (g *FloatGene) NewImpact(id string) *impact.GeneImpact { return impact.New(id) }
