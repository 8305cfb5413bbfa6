package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

var relatedLimit int

var relatedCmd = &cobra.Command{
	Use:   "related [note-id]",
	Short: "Find notes similar to an existing note",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelated,
}

func init() {
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 0, "maximum number of results")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ranked, err := answerService.Related(context.Background(), args[0], relatedLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no indexed note with id %s", args[0])
		}
		return fmt.Errorf("related lookup failed: %w", err)
	}

	return outputSearchTable(cmd, ranked)
}
