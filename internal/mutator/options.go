package mutator

import (
	"fmt"

	"genesearch/internal/gene"
)

const (
	GeneMutationName      = "gene_mutation"
	StructureMutationName = "structure_mutation"
)

// Options tunes a Mutator. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Strategy is one of default, deterministic_weight or adaptive_weight.
	Strategy string `yaml:"strategy" json:"strategy"`
	// ArchiveMutation enables impact-driven choice of the genes to mutate.
	ArchiveMutation bool `yaml:"archive_mutation" json:"archive_mutation"`
	// ProbOfArchiveMutation is the chance a round uses impacts when
	// ArchiveMutation is set.
	ProbOfArchiveMutation float64 `yaml:"prob_of_archive_mutation" json:"prob_of_archive_mutation"`
	// WeightBasedMutationRate scales how many candidates a weighted
	// selection picks, from one (0) to all of them (1).
	WeightBasedMutationRate float64 `yaml:"weight_based_mutation_rate" json:"weight_based_mutation_rate"`
	MaxRetries              int     `yaml:"max_retries" json:"max_retries"`
	// MaxActions caps the length a structure mutation may grow a test to.
	MaxActions             int                `yaml:"max_actions" json:"max_actions"`
	AbstractInitialization bool               `yaml:"abstract_initialization" json:"abstract_initialization"`
	OperatorWeights        map[string]float64 `yaml:"operator_weights" json:"operator_weights"`
}

func DefaultOptions() Options {
	return Options{
		Strategy:                gene.SelectAdaptiveWeight.String(),
		ArchiveMutation:         true,
		ProbOfArchiveMutation:   0.5,
		WeightBasedMutationRate: 0.5,
		MaxRetries:              gene.DefaultMaxRetries,
		MaxActions:              10,
		AbstractInitialization:  true,
		OperatorWeights: map[string]float64{
			GeneMutationName:      0.9,
			StructureMutationName: 0.1,
		},
	}
}

func (o Options) Validate() error {
	if _, err := gene.ParseSelectionStrategy(o.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if o.ProbOfArchiveMutation < 0 || o.ProbOfArchiveMutation > 1 {
		return fmt.Errorf("%w: prob_of_archive_mutation must be in [0, 1], got %f", ErrInvalidOptions, o.ProbOfArchiveMutation)
	}
	if o.WeightBasedMutationRate < 0 || o.WeightBasedMutationRate > 1 {
		return fmt.Errorf("%w: weight_based_mutation_rate must be in [0, 1], got %f", ErrInvalidOptions, o.WeightBasedMutationRate)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0, got %d", ErrInvalidOptions, o.MaxRetries)
	}
	if o.MaxActions < 1 {
		return fmt.Errorf("%w: max_actions must be >= 1, got %d", ErrInvalidOptions, o.MaxActions)
	}
	total := 0.0
	for name, w := range o.OperatorWeights {
		if w < 0 {
			return fmt.Errorf("%w: operator weight for %s must be >= 0, got %f", ErrInvalidOptions, name, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("%w: at least one operator weight must be > 0", ErrInvalidOptions)
	}
	return nil
}

func (o Options) strategy() gene.SelectionStrategy {
	s, _ := gene.ParseSelectionStrategy(o.Strategy)
	return s
}
