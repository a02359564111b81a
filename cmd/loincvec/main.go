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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/loincvec/ai"
	"github.com/poiesic/loincvec/ai/ollama"
	"github.com/poiesic/loincvec/index"
	"github.com/poiesic/loincvec/index/qdrant"
	"github.com/poiesic/loincvec/ingest"
	"github.com/poiesic/loincvec/loinc"
	"github.com/poiesic/loincvec/webcache"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "loincvec",
		Usage: "Ingest the LOINC terminology into a vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Embed and upsert every LOINC term into the index",
				Action: processCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "core-csv",
						Usage:    "Path to LoincTableCore.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "part-csv",
						Usage:    "Path to Part.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Ollama server URL",
						Value: "http://localhost:11434",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "oscardp96/medcpt-article",
					},
					&cli.DurationFlag{
						Name:  "embedding-timeout",
						Usage: "Per-call embedding timeout",
						Value: 30 * time.Second,
					},
					&cli.StringFlag{
						Name:  "qdrant-host",
						Usage: "Qdrant server host",
						Value: "localhost",
					},
					&cli.IntFlag{
						Name:  "qdrant-port",
						Usage: "Qdrant gRPC port",
						Value: 6334,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Destination collection name",
						Value: "loinc",
					},
					&cli.Uint64Flag{
						Name:  "dimensions",
						Usage: "Embedding vector length",
						Value: 768,
					},
					&cli.StringFlag{
						Name:  "distance",
						Usage: "Similarity metric (cosine, dot, euclid)",
						Value: "cosine",
					},
					&cli.BoolFlag{
						Name:  "recreate",
						Usage: "Drop and recreate the collection before ingesting",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of points per upsert",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Skip the first N rows (resume an interrupted run)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "fetch",
				Usage:  "Download LOINC detail pages into a local cache",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "core-csv",
						Usage:    "Path to LoincTableCore.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "cache",
						Aliases:  []string{"c"},
						Usage:    "Path to the page cache directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Site base URL",
						Value: "https://loinc.org",
					},
					&cli.DurationFlag{
						Name:  "delay",
						Usage: "Delay between successive fetches",
						Value: 500 * time.Millisecond,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Fetch at most N codes (0 means all)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per page",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:   "docs",
				Usage:  "Render one markdown document per LOINC term",
				Action: docsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "core-csv",
						Usage:    "Path to LoincTableCore.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "part-csv",
						Usage:    "Path to Part.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output directory for rendered documents",
						Required: true,
					},
				},
			},
			{
				Name:   "check",
				Usage:  "Verify the index and embedding service are reachable",
				Action: checkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Ollama server URL",
						Value: "http://localhost:11434",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "oscardp96/medcpt-article",
					},
					&cli.StringFlag{
						Name:  "qdrant-host",
						Usage: "Qdrant server host",
						Value: "localhost",
					},
					&cli.IntFlag{
						Name:  "qdrant-port",
						Usage: "Qdrant gRPC port",
						Value: 6334,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection to report the point count for",
						Value: "loinc",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func processCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	distance, err := index.ParseDistance(c.String("distance"))
	if err != nil {
		return err
	}

	partFile, err := os.Open(c.String("part-csv"))
	if err != nil {
		return fmt.Errorf("opening part table: %w", err)
	}
	parts, err := loinc.LoadPartTable(partFile)
	partFile.Close()
	if err != nil {
		return fmt.Errorf("loading part table: %w", err)
	}
	slog.Info("part table loaded", "entries", parts.Len())

	coreFile, err := os.Open(c.String("core-csv"))
	if err != nil {
		return fmt.Errorf("opening core table: %w", err)
	}
	defer coreFile.Close()

	source, err := loinc.NewSource(coreFile, parts, slog.Default())
	if err != nil {
		return fmt.Errorf("reading core table: %w", err)
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimensions(int(c.Uint64("dimensions"))),
		ai.WithTimeout(c.Duration("embedding-timeout")),
	)
	embedder, err := ollama.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := qdrant.NewStore(c.String("qdrant-host"), c.Int("qdrant-port"))
	if err != nil {
		return fmt.Errorf("failed to connect to index: %w", err)
	}
	defer store.Close()

	if c.Bool("recreate") {
		spec := index.CollectionSpec{
			Name:       c.String("collection"),
			Dimensions: c.Uint64("dimensions"),
			Distance:   distance,
		}
		if err := store.RecreateCollection(ctx, spec); err != nil {
			return fmt.Errorf("recreating collection: %w", err)
		}
		slog.Info("collection recreated", "collection", spec.Name)
	}

	config := &ingest.Config{
		Collection:     c.String("collection"),
		Dimensions:     c.Uint64("dimensions"),
		Distance:       distance,
		BatchSize:      c.Int("batch-size"),
		PoolSize:       c.Int("pool-size"),
		Offset:         c.Int("offset"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		ReportInterval: c.Int("report-interval"),
	}

	pipeline, err := ingest.NewPipeline(source, embedder, store, config,
		ingest.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Core table: %s\n", c.String("core-csv"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintf(os.Stderr, "Collection: %s\n", c.String("collection"))
	fmt.Fprintln(os.Stderr)

	summary, runErr := pipeline.Run(ctx)

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	switch pipeline.State() {
	case ingest.StateCompleted:
		return nil
	case ingest.StateCompletedWithErrors:
		return cli.Exit("", 2)
	default:
		if runErr != nil {
			return cli.Exit(fmt.Sprintf("ingestion aborted: %v", runErr), 1)
		}
		return cli.Exit("ingestion aborted", 1)
	}
}

func fetchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coreFile, err := os.Open(c.String("core-csv"))
	if err != nil {
		return fmt.Errorf("opening core table: %w", err)
	}
	codes, err := loinc.ReadCodes(coreFile)
	coreFile.Close()
	if err != nil {
		return fmt.Errorf("reading core table: %w", err)
	}
	if limit := c.Int("limit"); limit > 0 && limit < len(codes) {
		codes = codes[:limit]
	}

	store, err := webcache.OpenStore(c.String("cache"), false)
	if err != nil {
		return fmt.Errorf("opening page cache: %w", err)
	}
	defer store.Close()

	fetcher, err := webcache.NewFetcher(
		webcache.WithBaseURL(c.String("base-url")),
		webcache.WithDelay(c.Duration("delay")),
		webcache.WithRetries(c.Int("max-retries"), c.Duration("retry-delay")),
		webcache.WithFetcherProgress(os.Stderr),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Fetching %d codes into %s\n", len(codes), c.String("cache"))
	fetched, err := fetcher.FetchMany(ctx, store, codes)
	fmt.Fprintf(os.Stderr, "Fetched %d new pages\n", fetched)
	return err
}

func docsCommand(c *cli.Context) error {
	partFile, err := os.Open(c.String("part-csv"))
	if err != nil {
		return fmt.Errorf("opening part table: %w", err)
	}
	parts, err := loinc.LoadPartTable(partFile)
	partFile.Close()
	if err != nil {
		return fmt.Errorf("loading part table: %w", err)
	}

	coreFile, err := os.Open(c.String("core-csv"))
	if err != nil {
		return fmt.Errorf("opening core table: %w", err)
	}
	defer coreFile.Close()

	source, err := loinc.NewSource(coreFile, parts, slog.Default())
	if err != nil {
		return fmt.Errorf("reading core table: %w", err)
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	written := 0
	for {
		term, err := source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("reading core table: %w", err)
		}
		path := filepath.Join(outDir, loinc.DocFileName(term.Code))
		if err := os.WriteFile(path, []byte(loinc.RenderDoc(term)), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}

	fmt.Fprintf(os.Stderr, "Wrote %d documents (skipped %d rows)\n", written, source.Skipped())
	return nil
}

func checkCommand(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := qdrant.NewStore(c.String("qdrant-host"), c.Int("qdrant-port"))
	if err != nil {
		return fmt.Errorf("failed to connect to index: %w", err)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("index health check failed: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Index: ok")

	if count, err := store.Count(ctx, c.String("collection")); err == nil {
		fmt.Fprintf(os.Stderr, "Collection %q: %d points\n", c.String("collection"), count)
	} else {
		fmt.Fprintf(os.Stderr, "Collection %q: not available (%v)\n", c.String("collection"), err)
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	embedder, err := ollama.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	vec, err := embedder.EmbedText(ctx, "connectivity probe")
	if err != nil {
		return fmt.Errorf("embedding service check failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Embedding service: ok (%d dimensions)\n", len(vec))

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
