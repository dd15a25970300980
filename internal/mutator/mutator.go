package mutator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"genesearch/internal/archive"
	"genesearch/internal/gene"
	"genesearch/internal/impact"
	"genesearch/internal/metrics"
	"genesearch/internal/search"
)

type Config struct {
	Options  Options
	Rand     *rand.Rand
	Registry *Registry
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Mutator applies one registered operator per round. It is not safe for
// concurrent use; give each worker its own Mutator and random source.
type Mutator struct {
	opts     Options
	rng      *rand.Rand
	registry *Registry
	metrics  *metrics.Collector
	log      *slog.Logger

	operators []string
	weights   []float64
}

// Result is a mutated copy of a test case with its synced impacts.
type Result struct {
	TestCase *search.TestCase
	Impacts  *archive.ImpactsOfIndividual
	Spec     *archive.MutatedGeneSpecification
	Operator string
}

func New(cfg Config) (*Mutator, error) {
	if cfg.Rand == nil {
		return nil, gene.ErrRandomSourceRequired
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mutator{
		opts:     cfg.Options,
		rng:      cfg.Rand,
		registry: registry,
		metrics:  cfg.Metrics,
		log:      logger.With("component", "mutator"),
	}
	names := make([]string, 0, len(cfg.Options.OperatorWeights))
	for name := range cfg.Options.OperatorWeights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := registry.Resolve(name); err != nil {
			return nil, err
		}
		if w := cfg.Options.OperatorWeights[name]; w > 0 {
			m.operators = append(m.operators, name)
			m.weights = append(m.weights, w)
		}
	}
	return m, nil
}

func (m *Mutator) Options() Options { return m.opts }

// NewImpacts builds the impacts of a freshly created test case.
func (m *Mutator) NewImpacts(tc *search.TestCase, fitness search.Fitness) (*archive.ImpactsOfIndividual, error) {
	return archive.New(tc, m.opts.AbstractInitialization, fitness)
}

// Mutate applies one operator to a copy of tc. The returned impacts are a
// clone of imps synced with the mutated copy; gene impact records stay
// shared with imps.
func (m *Mutator) Mutate(ctx context.Context, tc *search.TestCase, imps *archive.ImpactsOfIndividual) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	round := &Round{
		TestCase: tc.Copy(),
		Impacts:  imps.Clone(),
		Spec:     &archive.MutatedGeneSpecification{},
		Rand:     m.rng,
		Options:  m.opts,
		Genes: &gene.MutationContext{
			Rand:       m.rng,
			Strategy:   m.opts.strategy(),
			Weights:    gene.WeightControl{D: m.opts.WeightBasedMutationRate},
			MaxRetries: m.opts.MaxRetries,
			OnRetry:    func(gene.Gene) { m.metrics.ObserveRetry() },
		},
	}
	round.Genes.AllGenes = round.TestCase.Genes()

	op, err := m.chooseOperator()
	if err != nil {
		return nil, err
	}
	err = op.Apply(ctx, round)
	if errors.Is(err, ErrNoMutationChoice) && op.Name() != GeneMutationName {
		m.log.Debug("operator had no choice, falling back", "operator", op.Name())
		op = GeneMutation{}
		err = op.Apply(ctx, round)
	}
	if err != nil {
		m.metrics.ObserveFailure(op.Name())
		return nil, fmt.Errorf("%s: %w", op.Name(), err)
	}

	if err := round.Impacts.Sync(round.TestCase, round.Spec); err != nil {
		m.metrics.ObserveFailure(op.Name())
		return nil, fmt.Errorf("sync impacts after %s: %w", op.Name(), err)
	}
	m.metrics.ObserveMutation(op.Name())
	m.log.Debug("mutation round",
		"operator", op.Name(),
		"mutated_genes", len(round.Spec.MutatedGenes),
		"actions", len(round.TestCase.Calls()),
	)
	return &Result{TestCase: round.TestCase, Impacts: round.Impacts, Spec: round.Spec, Operator: op.Name()}, nil
}

// Feedback credits the evaluation of res to the genes it mutated and
// brings its impacts up to date with the test case.
func (m *Mutator) Feedback(ctx context.Context, res *Result, fitness search.Fitness) (map[int]impact.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcomes, err := res.Impacts.UpdateFromEvaluation(res.TestCase, res.Spec, fitness)
	if err != nil {
		if errors.Is(err, archive.ErrIndexOutOfRange) {
			m.log.Warn("skipping impact feedback for desynchronized individual", "error", err)
			return nil, nil
		}
		return nil, err
	}
	if err := res.Impacts.Sync(res.TestCase, nil); err != nil {
		return nil, err
	}

	counts := make(map[impact.Outcome]int)
	for _, o := range outcomes {
		counts[o]++
	}
	for o, n := range counts {
		m.metrics.ObserveOutcome(o.String(), n)
	}
	m.metrics.SetTrackedImpacts(len(res.Impacts.FlattenAllGeneImpacts()))
	return outcomes, nil
}

func (m *Mutator) chooseOperator() (Operator, error) {
	total := 0.0
	for _, w := range m.weights {
		total += w
	}
	pick := m.rng.Float64() * total
	name := m.operators[len(m.operators)-1]
	for i, w := range m.weights {
		pick -= w
		if pick < 0 {
			name = m.operators[i]
			break
		}
	}
	return m.registry.Resolve(name)
}
