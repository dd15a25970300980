package gene

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"genesearch/internal/impact"
)

// IntegerGene holds an integer bounded by an inclusive range.
type IntegerGene struct {
	base
	value int64
	min   int64
	max   int64
}

// NewInteger returns an integer gene spanning the int32 range.
func NewInteger(name string) *IntegerGene {
	return NewIntegerGene(name, 0, math.MinInt32, math.MaxInt32)
}

func NewIntegerGene(name string, value, min, max int64) *IntegerGene {
	if min > max {
		min, max = max, min
	}
	g := &IntegerGene{base: newBase(name), min: min, max: max}
	g.value = clamp(value, min, max)
	return g
}

func (g *IntegerGene) Value() int64 { return g.value }

func (g *IntegerGene) Min() int64 { return g.min }

func (g *IntegerGene) Max() int64 { return g.max }

// SetValue assigns v when it lies within the range.
func (g *IntegerGene) SetValue(v int64) error {
	if v < g.min || v > g.max {
		return fmt.Errorf("%w: %d outside [%d, %d] for %s", ErrInvalidValue, v, g.min, g.max, g.name)
	}
	g.value = v
	return nil
}

func (g *IntegerGene) IsMutable() bool { return g.min < g.max }

func (g *IntegerGene) Copy() Gene {
	return &IntegerGene{base: g.detached(), value: g.value, min: g.min, max: g.max}
}

func (g *IntegerGene) Randomize(rng *rand.Rand, forceNewValue bool, _ []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	if !g.IsMutable() {
		return nil
	}
	span := g.max - g.min
	for {
		var v int64
		if span < 0 || span == math.MaxInt64 {
			v = g.min + rng.Int63()
		} else {
			v = g.min + rng.Int63n(span+1)
		}
		if !forceNewValue || v != g.value {
			g.value = v
			return nil
		}
	}
}

func (g *IntegerGene) Mutate(mc *MutationContext, _ *SelectionInfo) (bool, error) {
	if !g.IsMutable() {
		return false, nil
	}
	if mc.Rand.Float64() < 0.1 {
		return true, g.Randomize(mc.Rand, true, mc.AllGenes)
	}

	delta := int64(1 + mc.Rand.Intn(10))
	if mc.Rand.Intn(2) == 0 {
		delta = -delta
	}
	next := clamp(g.value+delta, g.min, g.max)
	if next == g.value {
		next = clamp(g.value-delta, g.min, g.max)
	}
	g.value = next
	return true, nil
}

func (g *IntegerGene) PrintableString(PrintOptions) string { return g.RawString() }

func (g *IntegerGene) RawString() string { return strconv.FormatInt(g.value, 10) }

func (g *IntegerGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*IntegerGene)
	if !ok {
		return mismatch(g, other)
	}
	return g.SetValue(o.value)
}

func (g *IntegerGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*IntegerGene)
	if !ok {
		return false, mismatch(g, other)
	}
	return g.value == o.value, nil
}

func (g *IntegerGene) NewImpact(id string) *impact.GeneImpact { return impact.New(id) }

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
