package mutator

import (
	"context"
	"fmt"

	"genesearch/internal/archive"
	"genesearch/internal/gene"
	"genesearch/internal/impact"
)

// GeneMutation mutates a weighted subset of the mutable root genes of a
// test case. With archive mutation active, genes whose past mutations
// improved targets are favored and their impacts steer the selection of
// internal genes.
type GeneMutation struct{}

func (GeneMutation) Name() string { return GeneMutationName }

type geneSlot struct {
	gene        gene.Gene
	actionName  string
	actionIndex int
	fromInit    bool
}

func mutableSlots(r *Round) []geneSlot {
	var slots []geneSlot
	for i, a := range r.TestCase.InitializingActions() {
		for _, g := range a.Genes() {
			if g.IsMutable() {
				slots = append(slots, geneSlot{gene: g, actionName: a.Name(), actionIndex: i, fromInit: true})
			}
		}
	}
	for i, c := range r.TestCase.Calls() {
		for _, g := range c.Genes() {
			if g.IsMutable() {
				slots = append(slots, geneSlot{gene: g, actionName: c.Name(), actionIndex: i})
			}
		}
	}
	return slots
}

func (GeneMutation) Apply(ctx context.Context, r *Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slots := mutableSlots(r)
	if len(slots) == 0 {
		return fmt.Errorf("%w: no mutable gene", ErrNoMutationChoice)
	}

	useArchive := r.Options.ArchiveMutation && r.Rand.Float64() < r.Options.ProbOfArchiveMutation
	impacts := make([]*impact.GeneImpact, len(slots))
	static := make([]float64, len(slots))
	for i, s := range slots {
		static[i] = s.gene.MutationWeight()
		if !useArchive {
			continue
		}
		imp, err := r.Impacts.GeneImpact(s.actionName, archive.GeneID(s.actionName, s.gene), s.actionIndex, s.fromInit)
		if err != nil {
			return err
		}
		impacts[i] = imp
	}

	targets := uncoveredTargets(r)
	weights := static
	if useArchive {
		var err error
		weights, err = impact.Weights(static, impacts, targets)
		if err != nil {
			return err
		}
	}

	for _, i := range r.Genes.Weights.Select(r.Rand, weights) {
		s := slots[i]
		var info *gene.SelectionInfo
		if useArchive && impacts[i] != nil {
			info = &gene.SelectionInfo{Impact: impacts[i], Targets: targets}
		}
		r.Spec.AddMutatedGene(s.gene, s.gene, s.actionName, s.actionIndex, s.fromInit)
		if err := gene.StandardMutation(s.gene, r.Genes, info); err != nil {
			return fmt.Errorf("mutate %s: %w", archive.GeneID(s.actionName, s.gene), err)
		}
	}
	return nil
}

// uncoveredTargets lists reached targets not yet fully covered.
func uncoveredTargets(r *Round) []int {
	reached := r.Impacts.ReachedTargets()
	covered := make(map[int]bool)
	for _, t := range reached.Covered() {
		covered[t] = true
	}
	var out []int
	for _, t := range reached.Targets() {
		if !covered[t] {
			out = append(out, t)
		}
	}
	return out
}
