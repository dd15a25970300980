// Package gene models one piece of test input data as a tree of mutable
// genes and implements the mutation engine that perturbs those trees.
//
// Every node exclusively owns its children. A node created with children
// marks itself as their parent; Copy detaches the copy from its parent while
// keeping every descendant linked to its own structural parent.
package gene

import (
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"strings"

	"genesearch/internal/impact"
)

var (
	ErrEmptyName                    = errors.New("empty name for gene")
	ErrTypeMismatch                 = errors.New("invalid gene type")
	ErrInvalidValue                 = errors.New("invalid gene value")
	ErrLeafMutationNotImplemented   = errors.New("leaf mutation is not implemented")
	ErrEmptySelection               = errors.New("no internal gene selected to mutate")
	ErrUnknownStrategy              = errors.New("unknown selection strategy")
	ErrAdaptiveSelectionUnavailable = errors.New("adaptive gene selection is unavailable for the gene")
	ErrImpactKindMismatch           = errors.New("impact does not match gene kind")
	ErrValidValueNotFound           = errors.New("no valid value found within retry bound")
	ErrRandomSourceRequired         = errors.New("random source is required")
)

// Gene is a node of a gene tree. The set of implementations is closed to
// this package.
type Gene interface {
	Name() string
	Parent() Gene

	IsMutable() bool
	IsPrintable() bool
	MutationWeight() float64

	// Copy returns a deep copy with a nil parent.
	Copy() Gene

	// Randomize replaces the value. forceNewValue forbids keeping the current
	// value when another one is feasible; allGenes carries genes the value
	// may need to stay consistent with.
	Randomize(rng *rand.Rand, forceNewValue bool, allGenes []Gene) error

	// CandidatesInternalGenes returns the children eligible for recursive
	// mutation. Empty means Mutate is applied to this gene directly.
	CandidatesInternalGenes(mc *MutationContext, info *SelectionInfo) []Gene
	AdaptiveSelectSubset(mc *MutationContext, candidates []Gene, info *SelectionInfo) ([]Selected, error)
	Mutate(mc *MutationContext, info *SelectionInfo) (bool, error)
	MutationCheck() bool

	PrintableString(opts PrintOptions) string
	RawString() string

	CopyValueFrom(other Gene) error
	ContainsSameValueAs(other Gene) (bool, error)

	Children() []Gene
	NewImpact(id string) *impact.GeneImpact

	setParent(parent Gene)
}

type base struct {
	name   string
	parent Gene
	weight float64
}

func newBase(name string) base {
	if strings.TrimSpace(name) == "" {
		panic(ErrEmptyName)
	}
	return base{name: name, weight: 1}
}

func (b *base) Name() string { return b.name }

func (b *base) Parent() Gene { return b.parent }

func (b *base) setParent(parent Gene) { b.parent = parent }

func (b *base) IsMutable() bool { return true }

func (b *base) IsPrintable() bool { return true }

func (b *base) MutationWeight() float64 { return b.weight }

// SetMutationWeight overrides the static weight used by weighted selection.
func (b *base) SetMutationWeight(weight float64) {
	if weight > 0 {
		b.weight = weight
	}
}

func (b *base) CandidatesInternalGenes(*MutationContext, *SelectionInfo) []Gene { return nil }

func (b *base) AdaptiveSelectSubset(*MutationContext, []Gene, *SelectionInfo) ([]Selected, error) {
	return nil, fmt.Errorf("%w: %s", ErrAdaptiveSelectionUnavailable, b.name)
}

func (b *base) MutationCheck() bool { return true }

func (b *base) Children() []Gene { return nil }

func (b *base) detached() base {
	return base{name: b.name, weight: b.weight}
}

func adopt(parent Gene, children ...Gene) {
	for _, child := range children {
		if child != nil {
			child.setParent(parent)
		}
	}
}

// Root follows parent links up to the root of the tree, which may be g.
func Root(g Gene) Gene {
	curr := g
	for curr.Parent() != nil {
		curr = curr.Parent()
	}
	return curr
}

// Path returns the names from the root down to g.
func Path(g Gene) []string {
	var names []string
	for curr := g; curr != nil; curr = curr.Parent() {
		names = append(names, curr.Name())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// FlatView yields g and all of its descendants, depth first. Genes matching
// exclude are yielded but their children are not. The sequence may be
// iterated any number of times.
func FlatView(g Gene, exclude func(Gene) bool) iter.Seq[Gene] {
	return func(yield func(Gene) bool) {
		walk(g, exclude, yield)
	}
}

func walk(g Gene, exclude func(Gene) bool, yield func(Gene) bool) bool {
	if !yield(g) {
		return false
	}
	if exclude != nil && exclude(g) {
		return true
	}
	for _, child := range g.Children() {
		if !walk(child, exclude, yield) {
			return false
		}
	}
	return true
}

func mismatch(this, other Gene) error {
	return fmt.Errorf("%w: %T cannot be used with %T", ErrTypeMismatch, other, this)
}

func sameValue(a, b Gene) bool {
	same, err := a.ContainsSameValueAs(b)
	return err == nil && same
}
