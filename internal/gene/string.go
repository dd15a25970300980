package gene

import (
	"fmt"
	"math/rand"

	"genesearch/internal/impact"
)

const (
	DefaultMinStringLength = 0
	DefaultMaxStringLength = 16
)

const stringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// StringGene holds text whose length stays within [minLength, maxLength].
type StringGene struct {
	base
	value     string
	minLength int
	maxLength int
}

func NewStringGene(name, value string) *StringGene {
	return NewBoundedStringGene(name, value, DefaultMinStringLength, DefaultMaxStringLength)
}

func NewBoundedStringGene(name, value string, minLength, maxLength int) *StringGene {
	if minLength < 0 {
		minLength = 0
	}
	if maxLength < minLength {
		maxLength = minLength
	}
	return &StringGene{base: newBase(name), value: value, minLength: minLength, maxLength: maxLength}
}

func (g *StringGene) Value() string { return g.value }

func (g *StringGene) SetValue(v string) error {
	if len(v) < g.minLength || len(v) > g.maxLength {
		return fmt.Errorf("%w: length %d outside [%d, %d] for %s", ErrInvalidValue, len(v), g.minLength, g.maxLength, g.name)
	}
	g.value = v
	return nil
}

func (g *StringGene) IsMutable() bool { return g.maxLength > 0 }

func (g *StringGene) Copy() Gene {
	return &StringGene{base: g.detached(), value: g.value, minLength: g.minLength, maxLength: g.maxLength}
}

func (g *StringGene) Randomize(rng *rand.Rand, forceNewValue bool, _ []Gene) error {
	if rng == nil {
		return ErrRandomSourceRequired
	}
	if !g.IsMutable() {
		return nil
	}
	for {
		n := g.minLength + rng.Intn(g.maxLength-g.minLength+1)
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = randomChar(rng)
		}
		v := string(buf)
		if !forceNewValue || v != g.value {
			g.value = v
			return nil
		}
	}
}

func (g *StringGene) Mutate(mc *MutationContext, _ *SelectionInfo) (bool, error) {
	if !g.IsMutable() {
		return false, nil
	}
	rng := mc.Rand
	n := len(g.value)

	switch op := rng.Intn(4); {
	case op == 0 && n < g.maxLength:
		g.value += string(randomChar(rng))
	case op == 1 && n > g.minLength && n > 0:
		i := rng.Intn(n)
		g.value = g.value[:i] + g.value[i+1:]
	case op == 2 && n > 0:
		i := rng.Intn(n)
		c := randomChar(rng)
		for c == g.value[i] {
			c = randomChar(rng)
		}
		g.value = g.value[:i] + string(c) + g.value[i+1:]
	default:
		return true, g.Randomize(rng, true, mc.AllGenes)
	}
	return true, nil
}

func (g *StringGene) PrintableString(opts PrintOptions) string {
	if opts.Mode == EscapeJSON && opts.Format == FormatNone {
		return jsonQuote(g.value)
	}
	return quote(g.value, opts.Format)
}

func (g *StringGene) RawString() string { return g.value }

func (g *StringGene) CopyValueFrom(other Gene) error {
	o, ok := other.(*StringGene)
	if !ok {
		return mismatch(g, other)
	}
	return g.SetValue(o.value)
}

func (g *StringGene) ContainsSameValueAs(other Gene) (bool, error) {
	o, ok := other.(*StringGene)
	if !ok {
		return false, mismatch(g, other)
	}
	return g.value == o.value, nil
}

func (g *StringGene) NewImpact(id string) *impact.GeneImpact { return impact.New(id) }

func randomChar(rng *rand.Rand) byte {
	return stringAlphabet[rng.Intn(len(stringAlphabet))]
}
