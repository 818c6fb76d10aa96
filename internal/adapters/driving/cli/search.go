package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	searchTopK   int
	searchMode   string
	searchSource string
	searchExpand int
	searchWeight float64
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Retrieves ranked passages from the local corpus.

Modes:
  semantic     vector similarity only
  keyword      lexical (BM25) relevance only
  withContext  lexical with neighbouring context chunks
  hybrid       fused lexical + vector ranking (default)`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "hybrid", "retrieval mode")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict to one sourceId")
	searchCmd.Flags().IntVar(&searchExpand, "expand", 1, "neighbouring context chunks per hit")
	searchCmd.Flags().Float64Var(&searchWeight, "bm25-weight", 0.5, "lexical share of the fused score")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := retrievalProvider.Get(cmd.Context())
	if err != nil {
		return err
	}

	var mode domain.SearchMode
	switch searchMode {
	case "semantic":
		mode = domain.Semantic()
	case "keyword":
		mode = domain.Keyword()
	case "withContext":
		mode = domain.WithContext(searchExpand)
	case "hybrid":
		mode = domain.Hybrid(searchExpand, searchWeight)
	default:
		return fmt.Errorf("unknown mode %q", searchMode)
	}

	results, err := svc.Search(cmd.Context(), args[0], searchSource, searchTopK, mode)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, r.SourceID, r.FusedScore)
		if r.StartPage != nil {
			cmd.Printf("      Page: %d\n", *r.StartPage)
		}
		cmd.Printf("      %s\n", r.Excerpt)
	}
	return nil
}
