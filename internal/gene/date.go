package gene

import (
	"fmt"
	"math/rand"
	"time"

	"genesearch/internal/impact"
)

// Component ranges deliberately admit invalid calendar values.
const (
	MinYear  = 1900
	MaxYear  = 2100
	MinMonth = 0
	MaxMonth = 13
	MinDay   = 9
	MaxDay   = 32
)

// DateGene is an ISO local date split into year, month and day genes. With
// onlyValid set, every randomize and mutation leaves a real calendar date.
type DateGene struct {
	base
	year      *IntegerGene
	month     *IntegerGene
	day       *IntegerGene
	onlyValid bool
}

func NewDateGene(name string, onlyValid bool) *DateGene {
	return NewDateGeneFrom(name, 2016, 3, 12, onlyValid)
}

func NewDateGeneFrom(name string, year, month, day int64, onlyValid bool) *DateGene {
	g := &DateGene{
		base:      newBase(name),
		year:      NewIntegerGene("year", year, MinYear, MaxYear),
		month:     NewIntegerGene("month", month, MinMonth, MaxMonth),
		day:       NewIntegerGene("day", day, MinDay, MaxDay),
		onlyValid: onlyValid,
	}
	adopt(g, g.year, g.month, g.day)
	return g
}

func (g *DateGene) Year() *IntegerGene { return g.year }

func (g *DateGene) Month() *IntegerGene { return g.month }

func (g *DateGene) Day() *IntegerGene { return g.day }

func (g *DateGene) OnlyValid() bool { return g.onlyValid }

// IsValid reports whether the current triple is a real calendar date.
func (g *DateGene) IsValid() bool {
	_, err := time.Parse(time.DateOnly, g.RawString())
	return err == nil
}

func (g *DateGene) Copy() Gene {
	cp := &DateGene{
		base:      g.detached(),
		year:      g.year.Copy().(*IntegerGene),
		month:     g.month.Copy().(*IntegerGene),
		day:       g.day.Copy().(*IntegerGene),
		onlyValid: g.onlyValid,
	}
	adopt(cp, cp.year, cp.month, cp.day)
	return cp
}

func (g *DateGene) Children() []Gene { return []Gene{g.year, g.month, g.day} }

func (g *DateGene) Randomize(rng *rand.Rand, forceNewValue bool, allGenes []Gene) error {
	return g.randomizeWithin(rng, forceNewValue, allGenes, DefaultMaxRetries)
}

func (g *DateGene) randomizeWithin(rng *rand.Rand, forceNewValue bool, allGenes []Gene, limit int) error {
	for attempt := 0; attempt < limit; attempt++ {
		for _, part := range []*IntegerGene{g.year, g.month, g.day} {
			if err := part.Randomize(rng, forceNewValue, allGenes); err != nil {
				return err
			}
		}
		if g.MutationCheck() {
			return nil
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", ErrValidValueNotFound, g.name, limit)
}

func (g *DateGene) CandidatesInternalGenes(*MutationContext, *SelectionInfo) []Gene {
	return []Gene{g.year, g.month, g.day}
}

func (g *DateGene) AdaptiveSelectSubset(mc *MutationContext, candidates []Gene, info *SelectionInfo) ([]Selected, error) {
	if info == nil || info.Impact == nil || info.Impact.Date == nil {
		return nil, fmt.Errorf("%w: date gene %s", ErrImpactKindMismatch, g.name)
	}
	parts := info.Impact.Date
	impacts := make([]*impact.GeneImpact, len(candidates))
	for i, c := range candidates {
		switch c {
		case Gene(g.year):
			impacts[i] = parts.Year
		case Gene(g.month):
			impacts[i] = parts.Month
		case Gene(g.day):
			impacts[i] = parts.Day
		default:
			return nil, fmt.Errorf("%w: %s is not part of date %s", ErrTypeMismatch, c.Name(), g.name)
		}
	}
	return selectByImpact(candidates, impacts, mc, info)
}

func (g *DateGene) Mutate(mc *MutationContext, _ *SelectionInfo) (bool, error) {
	return true, g.randomizeWithin(mc.Rand, true, mc.AllGenes, mc.maxRetries())
}

func (g *DateGene) MutationCheck() bool { return !g.onlyValid || g.IsValid() }

func (g *DateGene) PrintableString(PrintOptions) string {
	return `"` + g.RawString() + `"`
}

func (g *DateGene) RawString() string {
	return fmt.Sprintf("%04d-%02d-%02d", g.year.value, g.month.value, g.day.value)
}

func (g *DateGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*DateGene)
	if !ok {
		return mismatch(g, other)
	}
	if g.onlyValid && !o.IsValid() {
		return fmt.Errorf("%w: cannot copy invalid date %s to %s", ErrInvalidValue, o.RawString(), g.name)
	}
	g.year.value = o.year.value
	g.month.value = o.month.value
	g.day.value = o.day.value
	return nil
}

func (g *DateGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*DateGene)
	if !ok {
		return false, mismatch(g, other)
	}
	return sameValue(g.year, o.year) && sameValue(g.month, o.month) && sameValue(g.day, o.day), nil
}

func (g *DateGene) NewImpact(id string) *impact.GeneImpact { return impact.NewDate(id) }
