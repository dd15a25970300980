package gene

import (
	"fmt"
	"math/rand"

	"genesearch/internal/impact"
)

// SelectionStrategy decides how internal genes are picked for mutation.
type SelectionStrategy int

const (
	SelectDefault SelectionStrategy = iota
	SelectDeterministicWeight
	SelectAdaptiveWeight
)

// DefaultMaxRetries bounds every retry-until-valid loop.
const DefaultMaxRetries = 1000

func (s SelectionStrategy) String() string {
	switch s {
	case SelectDefault:
		return "default"
	case SelectDeterministicWeight:
		return "deterministic_weight"
	case SelectAdaptiveWeight:
		return "adaptive_weight"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseSelectionStrategy maps a configuration name to a strategy.
func ParseSelectionStrategy(name string) (SelectionStrategy, error) {
	switch name {
	case "", "default":
		return SelectDefault, nil
	case "deterministic_weight":
		return SelectDeterministicWeight, nil
	case "adaptive_weight":
		return SelectAdaptiveWeight, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}

// MutationContext carries the parameters of one mutation.
type MutationContext struct {
	Rand     *rand.Rand
	Strategy SelectionStrategy
	Weights  WeightControl
	AllGenes []Gene

	// MaxRetries bounds validity retries; zero means DefaultMaxRetries.
	MaxRetries int
	// OnRetry, when set, is called each time a mutated child leaves its
	// parent invalid and the child is mutated again.
	OnRetry func(parent Gene)
}

func (mc *MutationContext) maxRetries() int {
	if mc.MaxRetries > 0 {
		return mc.MaxRetries
	}
	return DefaultMaxRetries
}

// SelectionInfo carries the impact record matching the gene being mutated
// and the targets the impacts are weighed against.
type SelectionInfo struct {
	Impact  *impact.GeneImpact
	Targets []int
}

func (s *SelectionInfo) child(imp *impact.GeneImpact) *SelectionInfo {
	if s == nil {
		return &SelectionInfo{Impact: imp}
	}
	return &SelectionInfo{Impact: imp, Targets: s.Targets}
}

// Selected pairs a chosen internal gene with the selection info to pass down.
type Selected struct {
	Gene Gene
	Info *SelectionInfo
}

// StandardMutation applies one mutation to g: leaf genes mutate in place,
// composite genes select a subset of their internal genes and recurse into
// each, repeating until g passes its MutationCheck.
func StandardMutation(g Gene, mc *MutationContext, info *SelectionInfo) error {
	if mc == nil || mc.Rand == nil {
		return ErrRandomSourceRequired
	}

	candidates := g.CandidatesInternalGenes(mc, info)
	if len(candidates) == 0 {
		mutated, err := g.Mutate(mc, info)
		if err != nil {
			return err
		}
		if !mutated {
			return fmt.Errorf("%w: %s", ErrLeafMutationNotImplemented, g.Name())
		}
		return nil
	}

	selected, err := SelectSubset(g, candidates, mc, info)
	if err != nil {
		return err
	}
	for _, s := range selected {
		if err := mutateUntilValid(g, s, mc); err != nil {
			return err
		}
	}
	return nil
}

// mutateUntilValid mutates s until parent is valid again and differs from its
// value before the call. A retry that lands back on the old value counts
// against the bound like an invalid one.
func mutateUntilValid(parent Gene, s Selected, mc *MutationContext) error {
	limit := mc.maxRetries()
	before := parent.Copy()
	for attempt := 1; ; attempt++ {
		if err := StandardMutation(s.Gene, mc, s.Info); err != nil {
			return err
		}
		if parent.MutationCheck() && !sameValue(before, parent) {
			return nil
		}
		if attempt >= limit {
			return fmt.Errorf("%w: %s after %d attempts", ErrValidValueNotFound, parent.Name(), attempt)
		}
		if mc.OnRetry != nil {
			mc.OnRetry(parent)
		}
	}
}

// SelectSubset picks the internal genes of g to mutate under the strategy of
// mc. Adaptive selection without impact data falls back to static weights.
func SelectSubset(g Gene, candidates []Gene, mc *MutationContext, info *SelectionInfo) ([]Selected, error) {
	var (
		selected []Selected
		err      error
	)
	switch mc.Strategy {
	case SelectDefault:
		selected = []Selected{{Gene: candidates[mc.Rand.Intn(len(candidates))], Info: info.child(nil)}}
	case SelectDeterministicWeight:
		selected = selectByWeight(candidates, staticWeights(candidates), mc, info)
	case SelectAdaptiveWeight:
		if info == nil || info.Impact == nil {
			selected = selectByWeight(candidates, staticWeights(candidates), mc, info)
		} else {
			selected, err = g.AdaptiveSelectSubset(mc, candidates, info)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, mc.Strategy)
	}
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: strategy=%s candidates=%d", ErrEmptySelection, mc.Strategy, len(candidates))
	}
	return selected, nil
}

func staticWeights(genes []Gene) []float64 {
	out := make([]float64, len(genes))
	for i, g := range genes {
		out[i] = g.MutationWeight()
	}
	return out
}

func selectByWeight(candidates []Gene, weights []float64, mc *MutationContext, info *SelectionInfo) []Selected {
	indexes := mc.Weights.Select(mc.Rand, weights)
	out := make([]Selected, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, Selected{Gene: candidates[i], Info: info.child(nil)})
	}
	return out
}

// selectByImpact weighs candidates by their impact records and hands each
// selected gene its own record.
func selectByImpact(candidates []Gene, impacts []*impact.GeneImpact, mc *MutationContext, info *SelectionInfo) ([]Selected, error) {
	weights, err := impact.Weights(staticWeights(candidates), impacts, info.Targets)
	if err != nil {
		return nil, err
	}
	indexes := mc.Weights.Select(mc.Rand, weights)
	out := make([]Selected, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, Selected{Gene: candidates[i], Info: info.child(impacts[i])})
	}
	return out, nil
}
