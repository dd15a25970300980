package genesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"genesearch/internal/archive"
	"genesearch/internal/gene"
	"genesearch/internal/graphql"
	"genesearch/internal/metrics"
	"genesearch/internal/model"
	"genesearch/internal/mutator"
	"genesearch/internal/search"
	"genesearch/internal/stats"
	"genesearch/internal/storage"
)

const defaultDBPath = "genesearch.db"

var (
	ErrFitnessRequired = errors.New("fitness function is required")
	ErrNoActions       = errors.New("schema defines no operations")
	ErrUnknownAction   = errors.New("unknown operation")
	ErrRunNotFound     = errors.New("run not found")
)

// MutationOptions tunes the mutator used by Run.
type MutationOptions = mutator.Options

func DefaultMutationOptions() MutationOptions { return mutator.DefaultOptions() }

type Options struct {
	StoreKind string
	// DBPath is the sqlite file or the postgres DSN, depending on StoreKind.
	DBPath     string
	Logger     *slog.Logger
	Registerer prometheus.Registerer
}

type Client struct {
	store   storage.Store
	log     *slog.Logger
	metrics *metrics.Collector
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" && storeKind == "sqlite" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	collector, err := metrics.NewCollector(opts.Registerer)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:   store,
		log:     logger,
		metrics: collector,
	}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

type SynthesizeRequest struct {
	SchemaPath     string
	OnlyValidDates bool
	MaxArraySize   int
}

type ActionItem struct {
	ID        string
	Operation string
	Type      string
	Params    []string
	// Genes counts every gene of the action templates, nested ones
	// included.
	Genes    int
	Document string
}

// Synthesize builds the action templates of a schema and describes them in
// id order.
func (c *Client) Synthesize(_ context.Context, req SynthesizeRequest) ([]ActionItem, error) {
	actions, err := c.synthesize(req)
	if err != nil {
		return nil, err
	}
	out := make([]ActionItem, 0, len(actions))
	for _, a := range sortedActions(actions) {
		item := ActionItem{ID: a.ID, Operation: a.Operation, Type: a.Type.String()}
		for _, p := range a.Params {
			if !p.Return {
				item.Params = append(item.Params, p.Name)
			}
			for range gene.FlatView(p.Gene, nil) {
				item.Genes++
			}
		}
		doc, err := a.Document(a.Genes())
		if err != nil {
			return nil, err
		}
		item.Document = doc
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) synthesize(req SynthesizeRequest) (map[string]*graphql.Action, error) {
	if req.SchemaPath == "" {
		return nil, errors.New("schema path is required")
	}
	schema, err := graphql.LoadSchema(req.SchemaPath)
	if err != nil {
		return nil, err
	}
	return graphql.Build(schema, graphql.Options{
		Logger:         c.log,
		Metrics:        c.metrics,
		OnlyValidDates: req.OnlyValidDates,
		MaxArraySize:   req.MaxArraySize,
	})
}

func sortedActions(actions map[string]*graphql.Action) []*graphql.Action {
	out := make([]*graphql.Action, 0, len(actions))
	for _, a := range actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EvaluatedAction is one operation of a test case as it would be sent.
type EvaluatedAction struct {
	ActionID  string
	Operation string
	Document  string
}

// Evaluation is handed to the fitness function once per candidate.
type Evaluation struct {
	Setup   []EvaluatedAction
	Actions []EvaluatedAction
}

// FitnessFunc scores a candidate. The result maps target ids to values in
// [0, 1]; 1 means covered.
type FitnessFunc func(ctx context.Context, ev Evaluation) (map[int]float64, error)

type RunRequest struct {
	SchemaPath     string
	OnlyValidDates bool
	Rounds         int
	Seed           int64
	// Actions is the length of the initial test case.
	Actions int
	// Setup lists actions run once before the test actions, by action id or
	// operation name.
	Setup []string
	// SnapshotEvery stores an impact snapshot every that many rounds; the
	// final state is always stored.
	SnapshotEvery int
	Mutation      *MutationOptions
	Fitness       FitnessFunc
}

type RunSummary struct {
	RunID        string
	Rounds       int
	BestTotal    float64
	History      []float64
	Improvements int
	Operators    map[string]int
	SnapshotIDs  []string
	Final        Evaluation
}

// Run evolves one test case with a (1+1) loop: each round mutates the
// current best, evaluates the mutant and keeps it when its total fitness is
// not lower. Cancellation is checked between rounds.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Fitness == nil {
		return RunSummary{}, ErrFitnessRequired
	}
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Actions <= 0 {
		req.Actions = 1
	}
	opts := mutator.DefaultOptions()
	if req.Mutation != nil {
		opts = *req.Mutation
	}
	if req.Actions > opts.MaxActions {
		return RunSummary{}, fmt.Errorf("initial actions %d exceed max_actions %d", req.Actions, opts.MaxActions)
	}

	templates, err := c.synthesize(SynthesizeRequest{SchemaPath: req.SchemaPath, OnlyValidDates: req.OnlyValidDates})
	if err != nil {
		return RunSummary{}, err
	}
	if len(templates) == 0 {
		return RunSummary{}, ErrNoActions
	}
	rng := rand.New(rand.NewSource(req.Seed))
	m, err := mutator.New(mutator.Config{
		Options: opts,
		Rand:    rng,
		Metrics: c.metrics,
		Logger:  c.log,
	})
	if err != nil {
		return RunSummary{}, err
	}
	tc, err := initialTestCase(rng, sortedActions(templates), req)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	log := c.log.With("component", "run", "run_id", runID)
	started := time.Now().UTC()
	evaluate := func(tc *search.TestCase) (search.Fitness, Evaluation, error) {
		ev, err := evaluation(tc, templates)
		if err != nil {
			return nil, Evaluation{}, err
		}
		fitness, err := req.Fitness(ctx, ev)
		if err != nil {
			return nil, Evaluation{}, fmt.Errorf("evaluate: %w", err)
		}
		return search.Fitness(fitness), ev, nil
	}

	fitness, current, err := evaluate(tc)
	if err != nil {
		return RunSummary{}, err
	}
	imps, err := m.NewImpacts(tc, fitness)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:     runID,
		Rounds:    req.Rounds,
		BestTotal: fitness.Total(),
		Operators: make(map[string]int),
	}
	for round := 1; round <= req.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		res, err := m.Mutate(ctx, tc, imps)
		if err != nil {
			return RunSummary{}, fmt.Errorf("round %d: %w", round, err)
		}
		mutantFitness, ev, err := evaluate(res.TestCase)
		if err != nil {
			return RunSummary{}, fmt.Errorf("round %d: %w", round, err)
		}
		if _, err := m.Feedback(ctx, res, mutantFitness); err != nil {
			return RunSummary{}, fmt.Errorf("round %d: %w", round, err)
		}
		summary.Operators[res.Operator]++

		if total := mutantFitness.Total(); total >= summary.BestTotal {
			if total > summary.BestTotal {
				summary.Improvements++
				log.Debug("improved", "round", round, "total", total)
			}
			summary.BestTotal = total
			tc, imps, current = res.TestCase, res.Impacts, ev
		}
		summary.History = append(summary.History, summary.BestTotal)

		if req.SnapshotEvery > 0 && round%req.SnapshotEvery == 0 && round != req.Rounds {
			id, err := c.saveSnapshot(ctx, runID, round, imps)
			if err != nil {
				return RunSummary{}, err
			}
			summary.SnapshotIDs = append(summary.SnapshotIDs, id)
		}
	}

	id, err := c.saveSnapshot(ctx, runID, req.Rounds, imps)
	if err != nil {
		return RunSummary{}, err
	}
	summary.SnapshotIDs = append(summary.SnapshotIDs, id)
	summary.Final = current

	if err := c.store.SaveRun(ctx, model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Seed:            req.Seed,
		Strategy:        opts.Strategy,
		Rounds:          req.Rounds,
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
		BestTotal:       summary.BestTotal,
		Improvements:    summary.Improvements,
		Operators:       summary.Operators,
		History:         summary.History,
	}); err != nil {
		return RunSummary{}, err
	}
	log.Info("run finished", "rounds", req.Rounds, "best_total", summary.BestTotal, "improvements", summary.Improvements)
	return summary, nil
}

func initialTestCase(rng *rand.Rand, templates []*graphql.Action, req RunRequest) (*search.TestCase, error) {
	calls := make([]*search.Call, 0, req.Actions)
	for i := 0; i < req.Actions; i++ {
		call, err := randomizedCall(rng, templates[rng.Intn(len(templates))])
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	tc := search.NewTestCase(calls...)

	if len(req.Setup) > 0 {
		group := make([]*search.Call, 0, len(req.Setup))
		for _, name := range req.Setup {
			a, ok := setupAction(templates, name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
			}
			call, err := randomizedCall(rng, a)
			if err != nil {
				return nil, err
			}
			group = append(group, call)
		}
		tc.AddInitialization(group...)
	}
	return tc, nil
}

// setupAction resolves a setup entry, which is an action id or an operation
// name. A name shared by a query and a mutation resolves to the mutation.
func setupAction(templates []*graphql.Action, name string) (*graphql.Action, bool) {
	var found *graphql.Action
	for _, a := range templates {
		if a.ID == name {
			return a, true
		}
		if a.Operation != name {
			continue
		}
		if found == nil || (found.Type != graphql.Mutation && a.Type == graphql.Mutation) {
			found = a
		}
	}
	return found, found != nil
}

func randomizedCall(rng *rand.Rand, a *graphql.Action) (*search.Call, error) {
	call, err := a.Call()
	if err != nil {
		return nil, err
	}
	for _, g := range call.Genes() {
		if !g.IsMutable() {
			continue
		}
		if err := g.Randomize(rng, false, call.Genes()); err != nil {
			return nil, fmt.Errorf("randomize %s: %w", a.Operation, err)
		}
	}
	return call, nil
}

func evaluation(tc *search.TestCase, byID map[string]*graphql.Action) (Evaluation, error) {
	var ev Evaluation
	for _, a := range tc.InitializingActions() {
		item, err := evaluatedAction(a, byID)
		if err != nil {
			return Evaluation{}, err
		}
		ev.Setup = append(ev.Setup, item)
	}
	for _, a := range tc.Actions() {
		item, err := evaluatedAction(a, byID)
		if err != nil {
			return Evaluation{}, err
		}
		ev.Actions = append(ev.Actions, item)
	}
	return ev, nil
}

func evaluatedAction(a search.Action, byID map[string]*graphql.Action) (EvaluatedAction, error) {
	template, ok := byID[a.Name()]
	if !ok {
		return EvaluatedAction{}, fmt.Errorf("%w: %s", ErrUnknownAction, a.Name())
	}
	doc, err := template.Document(a.Genes())
	if err != nil {
		return EvaluatedAction{}, err
	}
	return EvaluatedAction{ActionID: template.ID, Operation: template.Operation, Document: doc}, nil
}

func (c *Client) saveSnapshot(ctx context.Context, runID string, round int, imps *archive.ImpactsOfIndividual) (string, error) {
	snap := imps.Snapshot()
	snap.VersionedRecord = storage.Versioned()
	snap.ID = uuid.NewString()
	snap.RunID = runID
	snap.Round = round
	snap.CreatedAt = time.Now().UTC()
	if err := c.store.SaveSnapshot(ctx, snap); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return snap.ID, nil
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	StartedAtUTC string
	Seed         int64
	Strategy     string
	Rounds       int
	BestTotal    float64
	Improvements int
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		r := runs[i]
		out = append(out, RunItem{
			RunID:        r.ID,
			StartedAtUTC: r.StartedAt.UTC().Format(time.RFC3339),
			Seed:         r.Seed,
			Strategy:     r.Strategy,
			Rounds:       r.Rounds,
			BestTotal:    r.BestTotal,
			Improvements: r.Improvements,
		})
	}
	return out, nil
}

type SnapshotRequest struct {
	RunID  string
	Latest bool
}

// Snapshot returns the last impact snapshot of a run.
func (c *Client) Snapshot(ctx context.Context, req SnapshotRequest) (model.ImpactSnapshot, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return model.ImpactSnapshot{}, err
	}
	snaps, err := c.store.ListSnapshots(ctx, runID)
	if err != nil {
		return model.ImpactSnapshot{}, err
	}
	if len(snaps) == 0 {
		return model.ImpactSnapshot{}, fmt.Errorf("%w: no snapshots for %s", ErrRunNotFound, runID)
	}
	return snaps[len(snaps)-1], nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" {
		if _, ok, err := c.store.GetRun(ctx, runID); err != nil {
			return "", err
		} else if !ok {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id is required unless latest is set")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrRunNotFound
	}
	return runs[len(runs)-1].ID, nil
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
	Snapshots int
	History   stats.HistorySummary
}

// Export writes a stored run and all of its snapshots to OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		return ExportSummary{}, errors.New("output directory is required")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	snaps, err := c.store.ListSnapshots(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{Run: run, Snapshots: snaps})
	if err != nil {
		return ExportSummary{}, err
	}
	c.log.Info("run exported", "run_id", runID, "dir", dir, "snapshots", len(snaps))
	return ExportSummary{
		RunID:     runID,
		Directory: dir,
		Snapshots: len(snaps),
		History:   stats.SummarizeHistory(run.History),
	}, nil
}
