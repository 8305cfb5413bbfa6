package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

var (
	searchTags   []string
	searchAfter  string
	searchBefore string
	searchLimit  int
	searchMin    float64
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed notes",
	Long: `Performs hybrid search across indexed notes.
Combines semantic (vector) and keyword matching for best results.
Tag and date filters narrow the candidate set before scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "require a tag (repeatable)")
	searchCmd.Flags().StringVar(&searchAfter, "after", "", "only notes modified on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchBefore, "before", "", "only notes modified on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMin, "min-score", 0, "drop results scoring below this threshold")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	spec, err := buildQuerySpec(args[0])
	if err != nil {
		return err
	}

	ranked, err := searchService.Search(context.Background(), *spec)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, ranked)
	}
	return outputSearchTable(cmd, ranked)
}

// buildQuerySpec assembles a QuerySpec from the search flags.
func buildQuerySpec(query string) (*domain.QuerySpec, error) {
	spec := &domain.QuerySpec{
		Query:    query,
		Tags:     searchTags,
		K:        searchLimit,
		MinScore: searchMin,
	}

	var err error
	if spec.After, err = parseDateFlag(searchAfter); err != nil {
		return nil, fmt.Errorf("invalid --after date: %w", err)
	}
	if spec.Before, err = parseDateFlag(searchBefore); err != nil {
		return nil, fmt.Errorf("invalid --before date: %w", err)
	}
	return spec, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value. Empty means unset.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

func outputSearchJSON(cmd *cobra.Command, ranked *domain.RankedResult) error {
	data, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, ranked *domain.RankedResult) error {
	if ranked.Degraded {
		cmd.Println("Note: semantic ranking unavailable, results are keyword-only.")
	}
	if len(ranked.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range ranked.Results {
		result := &ranked.Results[i]

		title := result.Title
		if title == "" {
			title = result.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, result.Score)
		cmd.Printf("      Modified: %s\n", result.ModifiedAt.Format("2006-01-02"))
		if result.Snippet != "" {
			cmd.Printf("      %s\n", result.Snippet)
		}
		cmd.Println()
	}

	return nil
}
