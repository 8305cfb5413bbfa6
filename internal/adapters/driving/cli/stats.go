package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and cache statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}

	stats, err := statsService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	cmd.Printf("Notes indexed:    %d\n", stats.Documents)
	cmd.Printf("Vectors stored:   %d\n", stats.Vectors)
	if stats.Dimensions > 0 {
		cmd.Printf("Dimensions:       %d\n", stats.Dimensions)
	}

	if stats.Consistent {
		cmd.Println("Index state:      consistent")
	} else {
		cmd.Printf("Index state:      %d stale entries (run 'recall index' to repair)\n", stats.StaleEntries)
	}

	cmd.Println()
	cmd.Printf("Cached answers:   %d (%d valid, %d expired)\n",
		stats.Cache.Total, stats.Cache.Valid, stats.Cache.Expired)
	cmd.Printf("Cache hits:       %d\n", stats.Cache.Hits)

	return nil
}
