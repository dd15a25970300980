package mutator

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// Registry maps operator names to operators. It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Operator
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Operator)}
}

// DefaultRegistry holds the gene and structure mutation operators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, op := range []Operator{GeneMutation{}, StructureMutation{}} {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(op Operator) error {
	if op == nil {
		return errors.New("operator is required")
	}
	name := op.Name()
	if name == "" {
		return errors.New("operator name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	r.m[name] = op
	return nil
}

func (r *Registry) Resolve(name string) (Operator, error) {
	r.mu.RLock()
	op, ok := r.m[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return op, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
