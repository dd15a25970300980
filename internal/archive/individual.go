// Package archive keeps the impact bookkeeping of individuals in sync with
// their actions as the mutator edits them.
package archive

import (
	"errors"
	"fmt"
	"sort"

	"genesearch/internal/gene"
	"genesearch/internal/impact"
	"genesearch/internal/search"
)

var (
	ErrIndexOutOfRange          = errors.New("impact index out of range")
	ErrActionMismatch           = errors.New("mismatched action name")
	ErrInconsistentImpacts      = errors.New("inconsistent size of actions and impacts")
	ErrDuplicatedInitialization = errors.New("duplicated initialization of impacts")
)

// ImpactsOfIndividual aggregates the impacts of every action of one
// individual together with the best fitness it reached per target.
type ImpactsOfIndividual struct {
	initialization *InitializationImpacts
	actions        []*ImpactsOfAction
	structure      *StructureImpact
	reached        search.Fitness
}

// New builds impacts for ind. An individual without actions gets a single
// unnamed record over all of its genes. A non-nil fitness seeds the reached
// targets and the structure history.
func New(ind search.Individual, abstractInitialization bool, fitness search.Fitness) (*ImpactsOfIndividual, error) {
	ii := &ImpactsOfIndividual{
		initialization: NewInitializationImpacts(abstractInitialization),
		structure:      NewStructureImpact(),
		reached:        make(search.Fitness),
	}
	if err := ii.initialization.Init(ind.InitializationGroups()); err != nil {
		return nil, err
	}

	actions := ind.Actions()
	if len(actions) == 0 {
		ii.actions = []*ImpactsOfAction{newIndividualImpacts(ind)}
	} else {
		for _, a := range actions {
			ii.actions = append(ii.actions, NewImpactsOfAction(a))
		}
	}

	if fitness != nil {
		ii.structure.Update(ind, fitness)
		for target, v := range fitness {
			ii.reached[target] = v
		}
	}
	return ii, nil
}

// NewEmpty returns impacts with no records, to be filled by
// InitInitializationImpacts or UpdateInitializationGeneImpacts.
func NewEmpty(abstractInitialization bool) *ImpactsOfIndividual {
	return &ImpactsOfIndividual{
		initialization: NewInitializationImpacts(abstractInitialization),
		structure:      NewStructureImpact(),
		reached:        make(search.Fitness),
	}
}

// Copy returns a fully independent deep copy.
func (ii *ImpactsOfIndividual) Copy() *ImpactsOfIndividual {
	out := &ImpactsOfIndividual{
		initialization: ii.initialization.Copy(),
		structure:      ii.structure.Copy(),
		reached:        ii.reached.Copy(),
	}
	for _, a := range ii.actions {
		out.actions = append(out.actions, a.Copy())
	}
	return out
}

// Clone returns a copy whose containers are independent but whose gene
// impact records are shared with ii.
func (ii *ImpactsOfIndividual) Clone() *ImpactsOfIndividual {
	out := &ImpactsOfIndividual{
		initialization: ii.initialization.Clone(),
		structure:      ii.structure.Copy(),
		reached:        ii.reached.Copy(),
	}
	for _, a := range ii.actions {
		out.actions = append(out.actions, a.Clone())
	}
	return out
}

func (ii *ImpactsOfIndividual) Initialization() *InitializationImpacts { return ii.initialization }

func (ii *ImpactsOfIndividual) Structure() *StructureImpact { return ii.structure }

// ReachedTargets returns a copy of the best value reached per target.
func (ii *ImpactsOfIndividual) ReachedTargets() search.Fitness { return ii.reached.Copy() }

func (ii *ImpactsOfIndividual) SizeOfActionImpacts(fromInitialization bool) int {
	if fromInitialization {
		return ii.initialization.Size()
	}
	return len(ii.actions)
}

// GeneImpact returns the impact stored under id for the action at index.
// A negative index addresses the record of an individual without actions.
// A nil impact with a nil error means the id is not tracked yet.
func (ii *ImpactsOfIndividual) GeneImpact(actionName, id string, actionIndex int, fromInitialization bool) (*impact.GeneImpact, error) {
	if actionIndex < 0 {
		if len(ii.actions) == 0 {
			return nil, nil
		}
		return ii.actions[0].GeneImpacts[id], nil
	}
	a, err := ii.impactsAt(actionName, actionIndex, fromInitialization)
	if err != nil || a == nil {
		return nil, err
	}
	return a.Get(id, a.ActionName)
}

func (ii *ImpactsOfIndividual) impactsAt(actionName string, index int, fromInitialization bool) (*ImpactsOfAction, error) {
	if fromInitialization {
		return ii.initialization.ImpactOfAction(actionName, index)
	}
	if index < 0 || index >= len(ii.actions) {
		return nil, fmt.Errorf("%w: action index %d of %d", ErrIndexOutOfRange, index, len(ii.actions))
	}
	a := ii.actions[index]
	if actionName != "" && a.ActionName != actionName {
		return nil, fmt.Errorf("%w: action %d is %q, asked for %q", ErrActionMismatch, index, a.ActionName, actionName)
	}
	return a, nil
}

// GeneImpactsByID returns every impact stored under id in any action.
func (ii *ImpactsOfIndividual) GeneImpactsByID(id string) []*impact.GeneImpact {
	var out []*impact.GeneImpact
	for _, a := range ii.allActionImpacts() {
		if imp, ok := a.GeneImpacts[id]; ok {
			out = append(out, imp)
		}
	}
	return out
}

// FindImpactsByAction returns the gene impacts of one action, or nil when
// the index or name does not match.
func (ii *ImpactsOfIndividual) FindImpactsByAction(actionName string, actionIndex int, fromInitialization bool) map[string]*impact.GeneImpact {
	a, err := ii.impactsAt(actionName, actionIndex, fromInitialization)
	if err != nil || a == nil {
		return nil
	}
	return a.GeneImpacts
}

// Sync reconciles the impacts with the current actions of ind after a
// mutation round described by spec. Initialization impacts grow by the
// groups spec added or are truncated to the surviving ones; every
// non-manipulated gene gets a record if it has none.
func (ii *ImpactsOfIndividual) Sync(ind search.Individual, spec *MutatedGeneSpecification) error {
	initializing := ind.InitializingActions()
	diff := len(initializing) - ii.initialization.OriginalSize()
	switch {
	case diff > 0:
		if added := spec.addedInitializationCount(); added != diff {
			return fmt.Errorf("%w: %d new initializing actions, %d reported as added", ErrInconsistentImpacts, diff, added)
		}
		ii.initialization.Append(spec.AddedInitializationGroups)
	case diff < 0:
		if err := ii.initialization.Truncate(ind.InitializationGroups()); err != nil {
			return err
		}
	}

	manipulated := spec.ManipulatedGenes()
	actions := ind.Actions()
	if len(actions) == 0 {
		if len(ii.actions) != 1 || ii.actions[0].ActionName != "" {
			return fmt.Errorf("%w: individual without actions has %d action impacts", ErrInconsistentImpacts, len(ii.actions))
		}
		ii.addMissing(ii.actions[0], "", ind.Genes(), manipulated)
		return nil
	}

	if len(actions) != len(ii.actions) {
		return fmt.Errorf("%w: %d actions, %d impacts", ErrInconsistentImpacts, len(actions), len(ii.actions))
	}
	for i, a := range actions {
		if ii.actions[i].ActionName != a.Name() {
			return fmt.Errorf("%w: action %d is %q, impacts are for %q", ErrActionMismatch, i, a.Name(), ii.actions[i].ActionName)
		}
		ii.addMissing(ii.actions[i], a.Name(), a.Genes(), manipulated)
	}
	return nil
}

func (ii *ImpactsOfIndividual) addMissing(a *ImpactsOfAction, actionName string, genes []gene.Gene, manipulated map[gene.Gene]struct{}) {
	for _, g := range genes {
		if _, ok := manipulated[g]; ok {
			continue
		}
		id := GeneID(actionName, g)
		if _, ok := a.GeneImpacts[id]; !ok {
			a.GeneImpacts[id] = g.NewImpact(id)
		}
	}
}

// DeleteActionGeneImpacts removes the impacts of the actions at indexes. It
// reports false and removes nothing when indexes is empty or any index is
// out of range.
func (ii *ImpactsOfIndividual) DeleteActionGeneImpacts(indexes []int) bool {
	if len(indexes) == 0 {
		return false
	}
	sorted := append([]int(nil), indexes...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	if sorted[0] >= len(ii.actions) || sorted[len(sorted)-1] < 0 {
		return false
	}
	last := -1
	for _, i := range sorted {
		if i == last {
			continue
		}
		ii.actions = append(ii.actions[:i], ii.actions[i+1:]...)
		last = i
	}
	return true
}

// AddOrUpdateActionGeneImpacts inserts a record at actionIndex for a new
// action, or merges impacts into the existing record. It reports false
// when the index is out of range or the impacts belong to another action.
func (ii *ImpactsOfIndividual) AddOrUpdateActionGeneImpacts(actionName string, actionIndex int, newAction bool, impacts map[string]*impact.GeneImpact) bool {
	if actionIndex < 0 {
		return false
	}
	if newAction {
		if actionIndex > len(ii.actions) {
			return false
		}
		for id := range impacts {
			if ActionNameOf(id) != actionName {
				return false
			}
		}
		record := &ImpactsOfAction{ActionName: actionName, GeneImpacts: make(map[string]*impact.GeneImpact, len(impacts))}
		for id, imp := range impacts {
			record.GeneImpacts[id] = imp
		}
		ii.actions = append(ii.actions, nil)
		copy(ii.actions[actionIndex+1:], ii.actions[actionIndex:])
		ii.actions[actionIndex] = record
		return true
	}
	if actionIndex >= len(ii.actions) {
		return false
	}
	return ii.actions[actionIndex].AddGeneImpacts(actionName, impacts, false)
}

// InitInitializationImpacts records the initialization groups of an
// individual built by NewEmpty.
func (ii *ImpactsOfIndividual) InitInitializationImpacts(groups [][]search.Action) error {
	return ii.initialization.Init(groups)
}

// UpdateInitializationGeneImpacts takes over the initialization impacts of
// other, sharing its gene impact records.
func (ii *ImpactsOfIndividual) UpdateInitializationGeneImpacts(other *ImpactsOfIndividual) error {
	return ii.initialization.InitFrom(other.initialization)
}

func (ii *ImpactsOfIndividual) allActionImpacts() []*ImpactsOfAction {
	all := append([]*ImpactsOfAction(nil), ii.initialization.All()...)
	return append(all, ii.actions...)
}

// AnyImpactfulInfo reports whether any mutation of any gene ever changed a
// target.
func (ii *ImpactsOfIndividual) AnyImpactfulInfo() bool {
	for _, a := range ii.allActionImpacts() {
		if a.AnyImpactfulInfo() {
			return true
		}
	}
	return false
}

// AnyImpactInfo reports whether any impact record exists at all.
func (ii *ImpactsOfIndividual) AnyImpactInfo() bool {
	return ii.initialization.Size() > 0 || len(ii.actions) > 0
}

// FlattenAllGeneImpacts returns every gene impact, initialization first,
// each action's impacts ordered by id.
func (ii *ImpactsOfIndividual) FlattenAllGeneImpacts() []*impact.GeneImpact {
	var out []*impact.GeneImpact
	for _, a := range ii.allActionImpacts() {
		for _, id := range a.sortedIDs() {
			out = append(out, a.GeneImpacts[id])
		}
	}
	return out
}

func (ii *ImpactsOfIndividual) InitializationGeneImpacts() []map[string]*impact.GeneImpact {
	return geneImpactMaps(ii.initialization.All())
}

func (ii *ImpactsOfIndividual) ActionGeneImpacts() []map[string]*impact.GeneImpact {
	return geneImpactMaps(ii.actions)
}

// ActionImpacts returns the per-action records in action order.
func (ii *ImpactsOfIndividual) ActionImpacts() []*ImpactsOfAction {
	return append([]*ImpactsOfAction(nil), ii.actions...)
}

func geneImpactMaps(actions []*ImpactsOfAction) []map[string]*impact.GeneImpact {
	out := make([]map[string]*impact.GeneImpact, len(actions))
	for i, a := range actions {
		out[i] = a.GeneImpacts
	}
	return out
}

// UpdateFromEvaluation credits the genes mutated in spec with the outcome
// of evaluating ind, then records the new fitness. It returns the outcome
// per target.
func (ii *ImpactsOfIndividual) UpdateFromEvaluation(ind search.Individual, spec *MutatedGeneSpecification, fitness search.Fitness) (map[int]impact.Outcome, error) {
	outcomes := impact.Classify(ii.reached, fitness)

	if spec != nil {
		for _, m := range spec.MutatedGenes {
			id := GeneID(m.ActionName, m.Gene)
			imp, err := ii.GeneImpact(m.ActionName, id, m.ActionIndex, m.FromInitialization)
			if err != nil {
				return nil, err
			}
			if imp == nil {
				imp = m.Gene.NewImpact(id)
				a, err := ii.recordFor(m)
				if err != nil {
					return nil, err
				}
				a.GeneImpacts[id] = imp
			}
			if err := gene.RecordImpact(m.Original, m.Gene, imp, outcomes); err != nil {
				return nil, err
			}
		}
	}

	ii.structure.Update(ind, fitness)
	for target, v := range fitness {
		if before, ok := ii.reached[target]; !ok || v > before {
			ii.reached[target] = v
		}
	}
	return outcomes, nil
}

func (ii *ImpactsOfIndividual) recordFor(m MutatedGene) (*ImpactsOfAction, error) {
	if m.ActionIndex < 0 {
		if len(ii.actions) == 0 {
			return nil, fmt.Errorf("%w: no impacts for individual", ErrIndexOutOfRange)
		}
		return ii.actions[0], nil
	}
	a, err := ii.impactsAt(m.ActionName, m.ActionIndex, m.FromInitialization)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: no template impacts for initialization action %d", ErrIndexOutOfRange, m.ActionIndex)
	}
	return a, nil
}
