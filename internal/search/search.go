// Package search defines the individuals the mutation engine works on: a
// test case is a sequence of initializing actions followed by regular
// actions, each owning the root genes of its inputs.
package search

import (
	"errors"
	"fmt"
	"sort"

	"genesearch/internal/gene"
)

var (
	ErrActionIndexOutOfRange = errors.New("action index out of range")
	ErrEmptyActionName       = errors.New("action name is required")
)

// Action is one operation of an individual.
type Action interface {
	Name() string
	Genes() []gene.Gene
}

// Individual is the unit evaluated by the search.
type Individual interface {
	Actions() []Action
	InitializingActions() []Action
	// InitializationGroups returns the initializing actions in the groups
	// they were added in.
	InitializationGroups() [][]Action
	// Genes returns the root genes of every action, initializing ones first.
	Genes() []gene.Gene
}

// Fitness maps target ids to the best value reached, higher is better.
type Fitness map[int]float64

func (f Fitness) Copy() Fitness {
	if f == nil {
		return nil
	}
	out := make(Fitness, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f Fitness) Total() float64 {
	total := 0.0
	for _, v := range f {
		total += v
	}
	return total
}

// Covered lists the targets whose value reached 1, in ascending order.
func (f Fitness) Covered() []int {
	var out []int
	for target, v := range f {
		if v >= 1 {
			out = append(out, target)
		}
	}
	sort.Ints(out)
	return out
}

// Targets lists every target in ascending order.
func (f Fitness) Targets() []int {
	out := make([]int, 0, len(f))
	for target := range f {
		out = append(out, target)
	}
	sort.Ints(out)
	return out
}

// Call is a concrete action invoking a named operation with input genes.
type Call struct {
	name  string
	genes []gene.Gene
}

func NewCall(name string, genes ...gene.Gene) (*Call, error) {
	if name == "" {
		return nil, ErrEmptyActionName
	}
	return &Call{name: name, genes: genes}, nil
}

func (c *Call) Name() string { return c.name }

func (c *Call) Genes() []gene.Gene { return c.genes }

func (c *Call) Copy() *Call {
	genes := make([]gene.Gene, len(c.genes))
	for i, g := range c.genes {
		genes[i] = g.Copy()
	}
	return &Call{name: c.name, genes: genes}
}

// TestCase is the Individual the mutator edits. Initializing actions are
// kept in groups so that structural edits add or drop whole groups.
type TestCase struct {
	initialization [][]*Call
	actions        []*Call
}

var _ Individual = (*TestCase)(nil)

func NewTestCase(actions ...*Call) *TestCase {
	return &TestCase{actions: actions}
}

func (tc *TestCase) Actions() []Action {
	out := make([]Action, len(tc.actions))
	for i, a := range tc.actions {
		out[i] = a
	}
	return out
}

func (tc *TestCase) InitializingActions() []Action {
	var out []Action
	for _, group := range tc.initialization {
		for _, a := range group {
			out = append(out, a)
		}
	}
	return out
}

func (tc *TestCase) Genes() []gene.Gene {
	var out []gene.Gene
	for _, a := range tc.InitializingActions() {
		out = append(out, a.Genes()...)
	}
	for _, a := range tc.actions {
		out = append(out, a.genes...)
	}
	return out
}

func (tc *TestCase) Calls() []*Call { return tc.actions }

func (tc *TestCase) InitializationGroups() [][]Action {
	out := make([][]Action, len(tc.initialization))
	for i, group := range tc.initialization {
		out[i] = make([]Action, len(group))
		for j, a := range group {
			out[i][j] = a
		}
	}
	return out
}

// InsertAction places a at index, shifting later actions.
func (tc *TestCase) InsertAction(index int, a *Call) error {
	if index < 0 || index > len(tc.actions) {
		return fmt.Errorf("%w: insert at %d of %d", ErrActionIndexOutOfRange, index, len(tc.actions))
	}
	tc.actions = append(tc.actions, nil)
	copy(tc.actions[index+1:], tc.actions[index:])
	tc.actions[index] = a
	return nil
}

func (tc *TestCase) RemoveAction(index int) (*Call, error) {
	if index < 0 || index >= len(tc.actions) {
		return nil, fmt.Errorf("%w: remove %d of %d", ErrActionIndexOutOfRange, index, len(tc.actions))
	}
	removed := tc.actions[index]
	tc.actions = append(tc.actions[:index], tc.actions[index+1:]...)
	return removed, nil
}

// AddInitialization appends one group of initializing actions.
func (tc *TestCase) AddInitialization(group ...*Call) {
	if len(group) == 0 {
		return
	}
	tc.initialization = append(tc.initialization, group)
}

// TruncateInitialization keeps the first n initializing actions, dropping
// any group left empty.
func (tc *TestCase) TruncateInitialization(n int) {
	var kept [][]*Call
	for _, group := range tc.initialization {
		if n <= 0 {
			break
		}
		if len(group) > n {
			group = group[:n]
		}
		kept = append(kept, group)
		n -= len(group)
	}
	tc.initialization = kept
}

// Copy returns a deep copy sharing no genes with tc.
func (tc *TestCase) Copy() *TestCase {
	out := &TestCase{actions: make([]*Call, len(tc.actions))}
	for i, a := range tc.actions {
		out.actions[i] = a.Copy()
	}
	for _, group := range tc.initialization {
		cp := make([]*Call, len(group))
		for i, a := range group {
			cp[i] = a.Copy()
		}
		out.initialization = append(out.initialization, cp)
	}
	return out
}
