package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"typeindex/config"
	"typeindex/internal/adapter/catalog"
	"typeindex/internal/cli"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
)

// Each catalog type is queried with its own description and examples; a
// healthy index ranks the type itself first.
func main() {
	dir := flag.String("dir", ".", "Working directory holding typeindex.yaml")
	threshold := flag.Float64("t", 0, "Similarity threshold (0 keeps every candidate)")
	verbose := flag.Bool("v", false, "Print every query")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("warn")
	app, err := cli.NewApp(*dir, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building index: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Connect(""); err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}
	app.Lifecycle.Wait()

	types, err := catalog.NewFileCatalog(cfg.CatalogDir(*dir), cfg.Catalog.Includes, cfg.Catalog.Excludes, logger).ListTypes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		os.Exit(1)
	}
	if len(types) == 0 {
		fmt.Fprintln(os.Stderr, "Catalog is empty")
		os.Exit(1)
	}

	count, _ := app.Search.StoredVectorCount()
	fmt.Println("SEMANTIC TYPE SELF-RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Vectors indexed: %d\n", count)
	fmt.Printf("Catalog types:   %d\n", len(types))
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Println()

	var (
		top1, inTopK int
		totalScore   float64
		elapsed      time.Duration
	)
	for _, t := range types {
		req := domain.GenerationRequest{
			Description:             t.Description,
			PositiveContentExamples: t.ContentValues,
		}

		start := time.Now()
		results, err := app.Search.FindSimilarTypes(req, *threshold)
		elapsed += time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error for %s: %v\n", t.SemanticType, err)
			os.Exit(1)
		}

		rank := 0
		for i, r := range results {
			if r.SemanticType == t.SemanticType {
				rank = i + 1
				totalScore += r.SimilarityScore
				break
			}
		}
		if rank == 1 {
			top1++
		}
		if rank > 0 {
			inTopK++
		}

		if *verbose || rank != 1 {
			best := "-"
			if len(results) > 0 {
				best = fmt.Sprintf("%s %.3f", results[0].SemanticType, results[0].SimilarityScore)
			}
			fmt.Printf("%-30s rank=%d best=[%s]\n", t.SemanticType, rank, best)
		}
	}

	n := float64(len(types))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Top-1 accuracy:      %.1f%%\n", 100*float64(top1)/n)
	fmt.Printf("  Found in top %d:      %.1f%%\n", cfg.Search.TopK, 100*float64(inTopK)/n)
	if inTopK > 0 {
		fmt.Printf("  Avg self similarity: %.3f\n", totalScore/float64(inTopK))
	}
	fmt.Printf("  Avg query latency:   %s\n", (elapsed / time.Duration(len(types))).Round(time.Microsecond))

	accuracy := float64(top1) / n
	if accuracy > 0.9 {
		fmt.Println("  Status: GOOD - types are well separated")
	} else if accuracy > 0.7 {
		fmt.Println("  Status: OK - some types overlap")
	} else {
		fmt.Println("  Status: POOR - descriptions may be too similar or the index is stale")
	}
}
