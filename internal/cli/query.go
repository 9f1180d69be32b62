package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"typeindex/internal/domain"
)

var (
	queryDescription string
	queryExamples    []string
	queryHeaders     []string
	queryThreshold   float64
	queryForLLM      bool
	queryBest        bool
	queryJSON        bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the indexed types most similar to a description",
	Long: `Embed a column description and rank the indexed semantic types against it.

Examples:
  typeindex query -d "customer email address"
  typeindex query -e alice@example.com -e bob@example.org -H email
  typeindex query -d "postal code" --llm --json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryDescription, "description", "d", "", "description of the data")
	queryCmd.Flags().StringArrayVarP(&queryExamples, "example", "e", nil, "positive content example (repeatable)")
	queryCmd.Flags().StringArrayVarP(&queryHeaders, "header", "H", nil, "positive header example (repeatable)")
	queryCmd.Flags().Float64VarP(&queryThreshold, "threshold", "t", -1, "minimum similarity (default from config)")
	queryCmd.Flags().BoolVar(&queryForLLM, "llm", false, "return the short candidate list used for LLM comparison")
	queryCmd.Flags().BoolVar(&queryBest, "best", false, "return only the single best match")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	req := domain.GenerationRequest{
		Description:             queryDescription,
		PositiveContentExamples: queryExamples,
		PositiveHeaderExamples:  queryHeaders,
	}
	if strings.TrimSpace(req.Description) == "" && len(req.PositiveContentExamples) == 0 && len(req.PositiveHeaderExamples) == 0 {
		return fmt.Errorf("provide --description, --example or --header")
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Gateway.Initialize(); err != nil {
		return err
	}

	var results []domain.SimilarityResult
	switch {
	case queryBest:
		best, err := app.Search.FindMostSimilarType(req)
		if err != nil {
			return err
		}
		if best != nil {
			results = []domain.SimilarityResult{*best}
		}
	case queryForLLM:
		threshold := app.Search.LLMThreshold()
		if cmd.Flags().Changed("threshold") {
			threshold = queryThreshold
		}
		results, err = app.Search.FindTopSimilarTypesForLLM(req, threshold)
		if err != nil {
			return err
		}
	default:
		threshold := app.Search.DefaultThreshold()
		if cmd.Flags().Changed("threshold") {
			threshold = queryThreshold
		}
		results, err = app.Search.FindSimilarTypes(req, threshold)
		if err != nil {
			return err
		}
	}

	if queryJSON {
		if results == nil {
			results = []domain.SimilarityResult{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No similar types found.")
		return nil
	}

	fmt.Printf("Found %d similar type(s):\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. %s (%.4f)\n", i+1, r.SemanticType, r.SimilarityScore)
		if r.Description != "" {
			fmt.Printf("   %s\n", r.Description)
		}
		if r.PluginType != "" {
			fmt.Printf("   plugin: %s\n", r.PluginType)
		}
	}
	return nil
}
