package mutator

import (
	"context"
	"fmt"

	"genesearch/internal/archive"
	"genesearch/internal/impact"
)

// StructureMutation removes an action or inserts a randomized copy of one,
// keeping the action impacts aligned with the edited test case.
type StructureMutation struct{}

func (StructureMutation) Name() string { return StructureMutationName }

func (StructureMutation) Apply(ctx context.Context, r *Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	calls := r.TestCase.Calls()
	if len(calls) == 0 {
		return fmt.Errorf("%w: no action to edit", ErrNoMutationChoice)
	}

	remove := len(calls) >= r.Options.MaxActions || (len(calls) > 1 && r.Rand.Intn(2) == 0)
	if remove {
		if len(calls) == 1 {
			return fmt.Errorf("%w: cannot remove the only action", ErrNoMutationChoice)
		}
		return removeAction(r, r.Rand.Intn(len(calls)))
	}
	return duplicateAction(r, r.Rand.Intn(len(calls)), r.Rand.Intn(len(calls)+1))
}

func removeAction(r *Round, index int) error {
	if _, err := r.TestCase.RemoveAction(index); err != nil {
		return err
	}
	if !r.Impacts.DeleteActionGeneImpacts([]int{index}) {
		return fmt.Errorf("%w: no impacts for removed action %d", archive.ErrInconsistentImpacts, index)
	}
	r.Spec.RemovedActions = append(r.Spec.RemovedActions, index)
	return nil
}

func duplicateAction(r *Round, source, at int) error {
	added := r.TestCase.Calls()[source].Copy()
	for _, g := range added.Genes() {
		if !g.IsMutable() {
			continue
		}
		if err := g.Randomize(r.Rand, false, r.TestCase.Genes()); err != nil {
			return err
		}
	}
	if err := r.TestCase.InsertAction(at, added); err != nil {
		return err
	}

	impacts := make(map[string]*impact.GeneImpact, len(added.Genes()))
	for _, g := range added.Genes() {
		id := archive.GeneID(added.Name(), g)
		impacts[id] = g.NewImpact(id)
	}
	if !r.Impacts.AddOrUpdateActionGeneImpacts(added.Name(), at, true, impacts) {
		return fmt.Errorf("%w: cannot insert impacts at %d", archive.ErrInconsistentImpacts, at)
	}
	r.Spec.AddedActions = append(r.Spec.AddedActions, at)
	return nil
}
