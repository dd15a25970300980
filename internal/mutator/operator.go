// Package mutator runs mutation rounds over test cases: an operator edits a
// copy of the test case, the impacts are kept in sync with the edit, and
// evaluation feedback is credited to the genes that changed.
package mutator

import (
	"context"
	"errors"
	"math/rand"

	"genesearch/internal/archive"
	"genesearch/internal/gene"
	"genesearch/internal/search"
)

var (
	ErrNoMutationChoice = errors.New("no mutation choice available")
	ErrInvalidOptions   = errors.New("invalid mutator options")
)

// Round is the state one operator application works on. TestCase and
// Impacts are private to the round; Spec accumulates what changed.
type Round struct {
	TestCase *search.TestCase
	Impacts  *archive.ImpactsOfIndividual
	Spec     *archive.MutatedGeneSpecification
	Rand     *rand.Rand
	Options  Options

	// Genes configures StandardMutation for the round.
	Genes *gene.MutationContext
}

type Operator interface {
	Name() string
	Apply(ctx context.Context, r *Round) error
}
