package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeSessionFixture(t *testing.T, dir string) string {
	t.Helper()

	frames := 160
	neurons := 8
	var rows []string
	for f := 0; f < frames; f++ {
		cells := make([]string, neurons)
		for n := 0; n < neurons; n++ {
			v := 1 + 0.5*math.Sin(2*math.Pi*float64(f)/16*float64(n+1)/4)
			cells[n] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		rows = append(rows, strings.Join(cells, ","))
	}
	tracesPath := filepath.Join(dir, "traces.csv")
	if err := os.WriteFile(tracesPath, []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write traces: %v", err)
	}

	manifestPath := filepath.Join(dir, "session.yaml")
	manifest := "name: ctl-session\nfps: 12\ntraces_file: traces.csv\n"
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifestPath
}

func TestAnalyzeRunsExportCommands(t *testing.T) {
	base := t.TempDir()
	manifestPath := writeSessionFixture(t, base)
	artifacts := filepath.Join(base, "artifacts")
	out := filepath.Join(base, "out")
	ctx := context.Background()

	err := run(ctx, []string{"analyze",
		"--manifest", manifestPath,
		"--clusters", "2",
		"--artifacts-dir", artifacts,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if err := run(ctx, []string{"runs", "--artifacts-dir", artifacts}); err != nil {
		t.Fatalf("runs: %v", err)
	}

	err = run(ctx, []string{"export",
		"--latest",
		"--artifacts-dir", artifacts,
		"--out", out,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	entries, err := os.ReadDir(out)
	if err != nil || len(entries) != 1 {
		t.Fatalf("export dir entries = %v, err = %v", entries, err)
	}
	exported := filepath.Join(out, entries[0].Name())
	for _, file := range []string{"config.json", "clusters.json", "assignments.csv"} {
		if _, err := os.Stat(filepath.Join(exported, file)); err != nil {
			t.Fatalf("missing exported %s: %v", file, err)
		}
	}
}

func TestAnalyzeWithConfigFile(t *testing.T) {
	base := t.TempDir()
	manifestPath := writeSessionFixture(t, base)
	artifacts := filepath.Join(base, "artifacts")

	configPath := filepath.Join(base, "analyze.yaml")
	content := fmt.Sprintf("manifest: %s\nclusters: 3\nseed: 99\n", manifestPath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := run(context.Background(), []string{"analyze",
		"--config", configPath,
		"--artifacts-dir", artifacts,
	})
	if err != nil {
		t.Fatalf("analyze with config: %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a missing command")
	}
}

func TestAnalyzeRequiresManifest(t *testing.T) {
	if err := run(context.Background(), []string{"analyze"}); err == nil {
		t.Fatal("expected an error when no manifest is given")
	}
}

func TestRolesCommand(t *testing.T) {
	if err := run(context.Background(), []string{"roles"}); err != nil {
		t.Fatalf("roles: %v", err)
	}
	if err := run(context.Background(), []string{"roles", "--json"}); err != nil {
		t.Fatalf("roles --json: %v", err)
	}
}
