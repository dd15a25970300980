package archive

import (
	"genesearch/internal/gene"
	"genesearch/internal/search"
)

// MutatedGene describes one root gene changed during a mutation round.
// Original is the value before the change; ActionIndex is -1 for an
// individual without actions.
type MutatedGene struct {
	Gene               gene.Gene
	Original           gene.Gene
	ActionName         string
	ActionIndex        int
	FromInitialization bool
}

// MutatedGeneSpecification is the record of what one mutation round
// changed in an individual.
type MutatedGeneSpecification struct {
	MutatedGenes              []MutatedGene
	AddedInitializationGroups [][]search.Action
	AddedActions              []int
	RemovedActions            []int
}

// AddMutatedGene records g, copying original so later edits do not leak in.
func (s *MutatedGeneSpecification) AddMutatedGene(g, original gene.Gene, actionName string, actionIndex int, fromInit bool) {
	s.MutatedGenes = append(s.MutatedGenes, MutatedGene{
		Gene:               g,
		Original:           original.Copy(),
		ActionName:         actionName,
		ActionIndex:        actionIndex,
		FromInitialization: fromInit,
	})
}

// ManipulatedGenes returns the set of mutated root genes.
func (s *MutatedGeneSpecification) ManipulatedGenes() map[gene.Gene]struct{} {
	out := make(map[gene.Gene]struct{})
	if s == nil {
		return out
	}
	for _, m := range s.MutatedGenes {
		out[m.Gene] = struct{}{}
	}
	return out
}

// Structural reports whether actions were added or removed.
func (s *MutatedGeneSpecification) Structural() bool {
	return s != nil && (len(s.AddedActions) > 0 || len(s.RemovedActions) > 0 || len(s.AddedInitializationGroups) > 0)
}

func (s *MutatedGeneSpecification) addedInitializationCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, group := range s.AddedInitializationGroups {
		n += len(group)
	}
	return n
}
