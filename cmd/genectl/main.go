package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"genesearch/internal/model"
	"genesearch/internal/storage"
	"genesearch/pkg/genesearch"
)

const defaultDBPath = "genesearch.db"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "synth":
		return runSynth(ctx, args[1:])
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "snapshot":
		return runSnapshot(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openClient(ctx context.Context, storeKind, dbPath string, logger *slog.Logger) (*genesearch.Client, error) {
	client, err := genesearch.New(genesearch.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runSynth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	schemaPath := fs.String("schema", "", "introspection schema path (json or yaml)")
	onlyValidDates := fs.Bool("only-valid-dates", false, "restrict date genes to calendar-valid values")
	maxArraySize := fs.Int("max-array-size", 0, "maximum elements of synthesized list genes (0 uses the default)")
	showDocuments := fs.Bool("documents", false, "print the default document of each action")
	jsonOut := fs.Bool("json", false, "emit actions as JSON")
	verbose := fs.Bool("v", false, "log warnings and progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaPath == "" {
		return errors.New("schema is required")
	}

	client, err := openClient(ctx, "memory", "", newLogger(*verbose))
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.Synthesize(ctx, genesearch.SynthesizeRequest{
		SchemaPath:     *schemaPath,
		OnlyValidDates: *onlyValidDates,
		MaxArraySize:   *maxArraySize,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		type synthItem struct {
			ID        string   `json:"id"`
			Operation string   `json:"operation"`
			Type      string   `json:"type"`
			Params    []string `json:"params"`
			Genes     int      `json:"genes"`
			Document  string   `json:"document"`
		}
		out := make([]synthItem, 0, len(items))
		for _, item := range items {
			out = append(out, synthItem(item))
		}
		return writeJSON(os.Stdout, out)
	}

	for _, item := range items {
		fmt.Printf("id=%s type=%s params=%s genes=%s document_size=%s\n",
			item.ID,
			item.Type,
			strings.Join(item.Params, ","),
			humanize.Comma(int64(item.Genes)),
			humanize.Bytes(uint64(len(item.Document))),
		)
		if *showDocuments {
			fmt.Printf("  %s\n", item.Document)
		}
	}
	return nil
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional evolve config path (yaml or json)")
	schemaPath := fs.String("schema", "", "introspection schema path (json or yaml)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path or postgres dsn")
	seed := fs.Int64("seed", 1, "rng seed")
	rounds := fs.Int("rounds", 100, "mutation rounds")
	actions := fs.Int("actions", 1, "initial test case length")
	setup := fs.String("setup", "", "comma separated action ids or operation names run before the test actions")
	snapshotEvery := fs.Int("snapshot-every", 10, "store an impact snapshot every N rounds (0 stores only the final one)")
	onlyValidDates := fs.Bool("only-valid-dates", false, "restrict date genes to calendar-valid values")
	strategy := fs.String("strategy", "", "gene selection strategy: default|deterministic_weight|adaptive_weight")
	archiveMutation := fs.Bool("archive-mutation", true, "use impacts to pick genes to mutate")
	maxActions := fs.Int("max-actions", 0, "maximum test case length reachable by structure mutation (0 keeps the configured value)")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	verbose := fs.Bool("v", false, "log warnings and progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg := defaultEvolveConfig()
	if *configPath != "" {
		loaded, err := loadEvolveConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if setFlags["schema"] || cfg.Schema == "" {
		cfg.Schema = *schemaPath
	}
	if setFlags["store"] || cfg.Store == "" {
		cfg.Store = *storeKind
	}
	if setFlags["db-path"] || cfg.DBPath == "" {
		cfg.DBPath = *dbPath
	}
	if setFlags["seed"] {
		cfg.Seed = *seed
	}
	if setFlags["rounds"] {
		cfg.Rounds = *rounds
	}
	if setFlags["actions"] {
		cfg.Actions = *actions
	}
	if setFlags["setup"] {
		cfg.Setup = splitList(*setup)
	}
	if setFlags["snapshot-every"] {
		cfg.SnapshotEvery = *snapshotEvery
	}
	if setFlags["only-valid-dates"] {
		cfg.OnlyValidDates = *onlyValidDates
	}
	if setFlags["strategy"] {
		cfg.Mutation.Strategy = *strategy
	}
	if setFlags["archive-mutation"] {
		cfg.Mutation.ArchiveMutation = *archiveMutation
	}
	if setFlags["max-actions"] && *maxActions > 0 {
		cfg.Mutation.MaxActions = *maxActions
	}
	if cfg.Schema == "" {
		return errors.New("schema is required")
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store, cfg.DBPath, newLogger(*verbose))
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.Synthesize(ctx, genesearch.SynthesizeRequest{
		SchemaPath:     cfg.Schema,
		OnlyValidDates: cfg.OnlyValidDates,
	})
	if err != nil {
		return err
	}
	actionIDs := make([]string, 0, len(items))
	for _, item := range items {
		actionIDs = append(actionIDs, item.ID)
	}

	started := time.Now()
	summary, err := client.Run(ctx, cfg.runRequest(actionCoverage(actionIDs)))
	if err != nil {
		return err
	}

	if *jsonOut {
		type actionItem struct {
			ActionID  string `json:"action_id"`
			Operation string `json:"operation"`
			Document  string `json:"document"`
		}
		type evolveItem struct {
			RunID        string         `json:"run_id"`
			Rounds       int            `json:"rounds"`
			BestTotal    float64        `json:"best_total"`
			Improvements int            `json:"improvements"`
			Operators    map[string]int `json:"operators"`
			SnapshotIDs  []string       `json:"snapshot_ids"`
			Actions      []actionItem   `json:"actions"`
		}
		out := evolveItem{
			RunID:        summary.RunID,
			Rounds:       summary.Rounds,
			BestTotal:    summary.BestTotal,
			Improvements: summary.Improvements,
			Operators:    summary.Operators,
			SnapshotIDs:  summary.SnapshotIDs,
		}
		for _, a := range summary.Final.Actions {
			out.Actions = append(out.Actions, actionItem(a))
		}
		return writeJSON(os.Stdout, out)
	}

	fmt.Printf("run_id=%s rounds=%s best_total=%s improvements=%d snapshots=%d elapsed=%s\n",
		summary.RunID,
		humanize.Comma(int64(summary.Rounds)),
		humanize.FtoaWithDigits(summary.BestTotal, 4),
		summary.Improvements,
		len(summary.SnapshotIDs),
		time.Since(started).Round(time.Millisecond),
	)
	for _, a := range summary.Final.Setup {
		fmt.Printf("setup %s\n", a.Document)
	}
	for _, a := range summary.Final.Actions {
		fmt.Printf("action %s\n", a.Document)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path or postgres dsn")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(ctx, genesearch.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID        string  `json:"run_id"`
			StartedAtUTC string  `json:"started_at_utc"`
			Seed         int64   `json:"seed"`
			Strategy     string  `json:"strategy"`
			Rounds       int     `json:"rounds"`
			BestTotal    float64 `json:"best_total"`
			Improvements int     `json:"improvements"`
		}
		out := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			out = append(out, runsItem(r))
		}
		return writeJSON(os.Stdout, out)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		started := r.StartedAtUTC
		if at, err := time.Parse(time.RFC3339, r.StartedAtUTC); err == nil {
			started = humanize.Time(at)
		}
		fmt.Printf("run_id=%s started=%q seed=%d strategy=%s rounds=%s best_total=%s improvements=%d\n",
			r.RunID,
			started,
			r.Seed,
			r.Strategy,
			humanize.Comma(int64(r.Rounds)),
			humanize.FtoaWithDigits(r.BestTotal, 4),
			r.Improvements,
		)
	}
	return nil
}

func runSnapshot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path or postgres dsn")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run when run-id is omitted")
	jsonOut := fs.Bool("json", false, "emit the snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("run-id is required unless --latest is set")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := client.Snapshot(ctx, genesearch.SnapshotRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(os.Stdout, snap)
	}

	fmt.Printf("snapshot_id=%s run_id=%s round=%d created=%q abstract=%t targets=%d\n",
		snap.ID,
		snap.RunID,
		snap.Round,
		humanize.Time(snap.CreatedAt),
		snap.Abstract,
		len(snap.Reached),
	)
	printActionImpacts("setup", snap.Initialization)
	printActionImpacts("action", snap.Actions)
	for _, s := range snap.Structure {
		fmt.Printf("structure key=%s size=%d times=%s best_total=%s\n",
			s.Key,
			s.Size,
			humanize.Comma(int64(s.Times)),
			humanize.FtoaWithDigits(s.BestTotal, 4),
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path or postgres dsn")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run when run-id is omitted")
	outDir := fs.String("out", "exports", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("run-id is required unless --latest is set")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, newLogger(false))
	if err != nil {
		return err
	}
	defer client.Close()

	exported, err := client.Export(ctx, genesearch.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s snapshots=%d best_total=%s first_best_round=%d plateaus=%d\n",
		exported.RunID,
		exported.Directory,
		exported.Snapshots,
		humanize.FtoaWithDigits(exported.History.Best, 4),
		exported.History.FirstBestRound,
		exported.History.Plateaus,
	)
	return nil
}

func printActionImpacts(kind string, records []model.ActionImpactRecord) {
	for i, rec := range records {
		manipulated, noImpact := 0, 0
		for _, gi := range rec.GeneImpacts {
			manipulated += gi.TimesToManipulate
			noImpact += gi.TimesOfNoImpact
		}
		fmt.Printf("%s index=%d name=%s genes=%d manipulated=%s no_impact=%s\n",
			kind,
			i,
			rec.ActionName,
			len(rec.GeneImpacts),
			humanize.Comma(int64(manipulated)),
			humanize.Comma(int64(noImpact)),
		)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genectl <synth|evolve|runs|snapshot|export> [flags]", msg)
}
