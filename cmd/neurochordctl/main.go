package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"neurochord/internal/stats"
	"neurochord/internal/storage"
	chordapi "neurochord/pkg/neurochord"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
)

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
	case "analyze":
		return runAnalyze(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "roles":
		return runRoles(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neurochordctl <analyze|runs|export|roles> [flags]", msg)
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "", "dataset manifest path (YAML)")
	configPath := fs.String("config", "", "optional analyze config path (YAML or JSON)")
	clusters := fs.Int("clusters", 0, "forced cluster count (0 selects automatically)")
	maxK := fs.Int("max-k", 0, "upper bound for automatic cluster count selection (0 uses the default)")
	components := fs.Int("components", 0, "embedding dimensionality (0 uses the default)")
	seed := fs.Int64("seed", -1, "rng seed override (negative uses the dataset identity seed)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neurochord.db", "sqlite database path")
	baseDir := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultAnalyzeRequest(*configPath)
	if err != nil {
		return err
	}
	overrideFromFlags(&req, setFlags, *manifestPath, *clusters, *maxK, *components, *seed)
	if req.ManifestPath == "" {
		return errors.New("analyze requires --manifest (or a config with manifest set)")
	}

	client, err := chordapi.New(chordapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *baseDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Analyze(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("analyze completed run_id=%s dataset=%s seed=%d clusters=%d\n",
		summary.RunID, summary.Dataset, summary.Seed, len(summary.Clusters))
	if summary.Recommendation != nil {
		fmt.Printf("recommendation optimal_k=%d\n", summary.Recommendation.OptimalK)
	}
	for _, c := range summary.Clusters {
		fmt.Printf("cluster=%d role=%s size=%d activity=%.6f oscillation_hz=%.6f spike_rate=%.6f sync=%.6f\n",
			c.ID, c.Role, c.Size, c.MeanActivity, c.OscillationHz, c.SpikeRate, c.Synchronization)
	}
	fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	baseDir := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(*baseDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(entries) > *limit {
		entries = entries[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s dataset=%s neurons=%d frames=%d seed=%d clusters=%d auto_selected=%t\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Dataset,
			e.NeuronCount,
			e.FrameCount,
			e.Seed,
			e.ClusterCount,
			e.AutoSelected,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "export target directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neurochord.db", "sqlite database path")
	baseDir := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := chordapi.New(chordapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *baseDir,
		ExportsDir:   *outDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	export, err := client.Export(ctx, chordapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", export.RunID, export.Directory)
	return nil
}

func runRoles(args []string) error {
	fs := flag.NewFlagSet("roles", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit role vocabulary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roles := chordapi.Roles()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(roles)
	}
	for _, info := range roles {
		fmt.Printf("role=%s description=%s\n", info.Role, info.Description)
	}
	return nil
}
