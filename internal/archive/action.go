package archive

import (
	"fmt"
	"sort"

	"genesearch/internal/impact"
	"genesearch/internal/search"
)

// ImpactsOfAction holds the gene impacts of one action, keyed by gene id.
// Every id encodes ActionName.
type ImpactsOfAction struct {
	ActionName  string                        `json:"action_name"`
	GeneImpacts map[string]*impact.GeneImpact `json:"gene_impacts"`
}

// NewImpactsOfAction creates a fresh impact for every root gene of a.
func NewImpactsOfAction(a search.Action) *ImpactsOfAction {
	out := &ImpactsOfAction{ActionName: a.Name(), GeneImpacts: make(map[string]*impact.GeneImpact)}
	for _, g := range a.Genes() {
		id := GeneID(a.Name(), g)
		out.GeneImpacts[id] = g.NewImpact(id)
	}
	return out
}

func newIndividualImpacts(ind search.Individual) *ImpactsOfAction {
	out := &ImpactsOfAction{GeneImpacts: make(map[string]*impact.GeneImpact)}
	for _, g := range ind.Genes() {
		id := GeneID("", g)
		out.GeneImpacts[id] = g.NewImpact(id)
	}
	return out
}

// AddGeneImpact stores imp unless an impact with its id exists and force is
// unset. It reports false when the id belongs to another action.
func (a *ImpactsOfAction) AddGeneImpact(actionName string, imp *impact.GeneImpact, force bool) bool {
	if actionName != a.ActionName || ActionNameOf(imp.ID) != a.ActionName {
		return false
	}
	if _, ok := a.GeneImpacts[imp.ID]; ok && !force {
		return true
	}
	a.GeneImpacts[imp.ID] = imp
	return true
}

// AddGeneImpacts merges impacts. Nothing is stored when any id belongs to
// another action.
func (a *ImpactsOfAction) AddGeneImpacts(actionName string, impacts map[string]*impact.GeneImpact, force bool) bool {
	if actionName != a.ActionName {
		return false
	}
	for id := range impacts {
		if ActionNameOf(id) != a.ActionName {
			return false
		}
	}
	for id, imp := range impacts {
		if _, ok := a.GeneImpacts[id]; ok && !force {
			continue
		}
		a.GeneImpacts[id] = imp
	}
	return true
}

func (a *ImpactsOfAction) Get(id, actionName string) (*impact.GeneImpact, error) {
	if err := a.checkName(id, actionName); err != nil {
		return nil, err
	}
	return a.GeneImpacts[id], nil
}

func (a *ImpactsOfAction) Exists(id, actionName string) (bool, error) {
	if err := a.checkName(id, actionName); err != nil {
		return false, err
	}
	_, ok := a.GeneImpacts[id]
	return ok, nil
}

func (a *ImpactsOfAction) IsMissing(id, actionName string) (bool, error) {
	exists, err := a.Exists(id, actionName)
	return !exists, err
}

func (a *ImpactsOfAction) checkName(id, actionName string) error {
	if actionName != a.ActionName || ActionNameOf(id) != a.ActionName {
		return fmt.Errorf("%w: impacts belong to %q, asked for %q (%s)", ErrActionMismatch, a.ActionName, actionName, id)
	}
	return nil
}

// AnyImpactfulInfo reports whether any gene ever changed any target.
func (a *ImpactsOfAction) AnyImpactfulInfo() bool {
	for _, imp := range a.GeneImpacts {
		if imp.Impactful() {
			return true
		}
	}
	return false
}

func (a *ImpactsOfAction) ImpactfulTargets() []int {
	return a.collectTargets(func(imp *impact.GeneImpact) []int { return imp.ImpactfulTargets() })
}

func (a *ImpactsOfAction) NoImpactTargets() []int {
	return a.collectTargets(func(imp *impact.GeneImpact) []int { return imp.NoImpactTargets() })
}

func (a *ImpactsOfAction) collectTargets(targets func(*impact.GeneImpact) []int) []int {
	set := make(map[int]struct{})
	for _, imp := range a.GeneImpacts {
		for _, t := range targets(imp) {
			set[t] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Copy returns a deep copy.
func (a *ImpactsOfAction) Copy() *ImpactsOfAction {
	out := &ImpactsOfAction{ActionName: a.ActionName, GeneImpacts: make(map[string]*impact.GeneImpact, len(a.GeneImpacts))}
	for id, imp := range a.GeneImpacts {
		out.GeneImpacts[id] = imp.Copy()
	}
	return out
}

// Clone returns a new map sharing the gene impact records.
func (a *ImpactsOfAction) Clone() *ImpactsOfAction {
	out := &ImpactsOfAction{ActionName: a.ActionName, GeneImpacts: make(map[string]*impact.GeneImpact, len(a.GeneImpacts))}
	for id, imp := range a.GeneImpacts {
		out.GeneImpacts[id] = imp
	}
	return out
}

// sortedIDs returns the gene ids in ascending order.
func (a *ImpactsOfAction) sortedIDs() []string {
	ids := make([]string, 0, len(a.GeneImpacts))
	for id := range a.GeneImpacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
