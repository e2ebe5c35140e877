// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/canonit"
	"github.com/poiesic/canonit/config"
	"github.com/poiesic/canonit/extract/pdf"
	"github.com/poiesic/canonit/ingest"
	"github.com/poiesic/canonit/manifest"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "canonit",
		Usage: "Ingest documents into a citation-traceable vector store and search it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a corpus directory into the vector store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "corpus",
						Usage:    "Corpus root holding authoritative/ and external/ subdirectories",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Data directory for the store and manifest (overrides config)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Restrict the run to one side of the corpus (authoritative, external, all)",
						Value: "all",
					},
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Wipe stored chunks, topics, and the manifest before the run",
					},
					&cli.BoolFlag{
						Name:  "validate-only",
						Usage: "Screen documents without writing to the store or manifest",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the run report as JSON to this file",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search stored chunks and print hits with citations",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Data directory for the store and manifest (overrides config)",
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Question to search for",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
				},
			},
			{
				Name:   "manifest",
				Usage:  "Show what the ingestion manifest recorded per document",
				Action: manifestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Data directory for the store and manifest (overrides config)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves the effective configuration: an explicit --config file
// wins, otherwise the usual lookup chain runs. A --db flag overrides the
// configured store path.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	source, err := ingest.ParseSource(c.String("source"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := pdf.CheckAvailable(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, PDF documents will be rejected\n%s\n", err, pdf.InstallInstructions())
	}

	stack, err := canonit.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer stack.Close()

	pipeline, err := stack.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, c.String("corpus"), &ingest.RunOptions{
		Source:       source,
		Rebuild:      c.Bool("rebuild"),
		ValidateOnly: c.Bool("validate-only"),
		Snapshot:     cfg.Snapshot(),
		Monitor:      newBarMonitor(os.Stderr),
	})
	if report != nil {
		printSummary(os.Stderr, report)
		if path := c.String("report"); path != "" {
			if werr := report.WriteFile(path); werr != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write report: %v\n", werr)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if report.Failed() {
		return cli.Exit(color.RedString("✗ %d documents were rejected", report.DocumentsRejected), 1)
	}
	return nil
}

// printSummary renders the run outcome in the style of the progress output:
// a one-line verdict, chunk tallies, and the rejected documents if any.
func printSummary(out io.Writer, report *ingest.Report) {
	fmt.Fprintln(out)
	if report.Failed() {
		fmt.Fprintln(out, color.YellowString("Processed %d documents in %s (%d skipped, %d rejected)",
			report.DocumentsProcessed, report.Duration().Round(time.Millisecond),
			report.DocumentsSkipped, report.DocumentsRejected))
	} else {
		fmt.Fprintln(out, color.GreenString("✓ Processed %d documents in %s (%d skipped)",
			report.DocumentsProcessed, report.Duration().Round(time.Millisecond),
			report.DocumentsSkipped))
	}
	fmt.Fprintf(out, "  chunks: %d stored, %d rejected (%d relevance, %d contradiction, %d duplicate), %d failed embedding\n",
		report.ChunksCreated, report.ChunksRejected(),
		report.ChunksRejectedRelevance, report.ChunksRejectedContradiction,
		report.ChunksRejectedDuplicate, report.ChunksFailedEmbedding)
	if report.TopicsExtracted > 0 {
		fmt.Fprintf(out, "  topics: %d\n", report.TopicsExtracted)
	}
	for _, rejected := range report.RejectedDocuments {
		fmt.Fprintln(out, color.RedString("✗ %s: %s", rejected.Path, rejected.Reason))
	}
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	stack, err := canonit.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer stack.Close()

	searcher, err := stack.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, c.String("query"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i, hit := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, hit.Score, color.CyanString(hit.Citation))
		fmt.Printf("   %s\n", strings.ReplaceAll(hit.Chunk.Text, "\n", "\n   "))
	}
	return nil
}

func manifestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.ManifestPath()); err != nil {
		return fmt.Errorf("no manifest at %s", cfg.ManifestPath())
	}

	tracker, err := manifest.NewTracker(cfg.ManifestPath())
	if err != nil {
		return err
	}
	m, err := tracker.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Manifest %s (updated %s)\n", tracker.Path(), m.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("Embedded with %s (%d dimensions)\n\n", m.Config.EmbeddingModel, m.Config.Dimensions)

	if len(m.Entries) == 0 {
		fmt.Println("No documents recorded.")
		return nil
	}

	for _, path := range slices.Sorted(maps.Keys(m.Entries)) {
		entry := m.Entries[path]
		fmt.Printf("%s\n  chunks=%d accepted=%d relevance=%d contradiction=%d duplicate=%d embedfail=%d ingested=%s\n",
			path, entry.ChunkCount, entry.Tally.Accepted,
			entry.Tally.RejectedRelevance, entry.Tally.RejectedContradiction,
			entry.Tally.RejectedDuplicate, entry.Tally.FailedEmbedding,
			entry.IngestedAt.Format(time.RFC3339))
	}

	totals, err := tracker.Totals()
	if err != nil {
		return err
	}
	fmt.Printf("\nTotals: %d documents, %d chunks accepted, %d rejected (%d relevance, %d contradiction, %d duplicate), %d failed embedding\n",
		len(m.Entries), totals.Accepted,
		totals.RejectedRelevance+totals.RejectedContradiction+totals.RejectedDuplicate,
		totals.RejectedRelevance, totals.RejectedContradiction,
		totals.RejectedDuplicate, totals.FailedEmbedding)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
