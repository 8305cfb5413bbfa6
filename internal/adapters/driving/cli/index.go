package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index notes into the local store",
	Long: `Scans the notes directory and brings the local index up to date.
Only new and changed notes are re-embedded unless --full is given.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "re-index every note regardless of changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer not configured")
	}

	ctx := context.Background()
	cmd.Println("Indexing notes...")

	report, err := indexWithProgress(ctx, cmd, indexerService)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return errors.New("another index run is already in progress")
		}
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Done in %s: %d added, %d updated, %d removed, %d unchanged\n",
		report.Duration.Round(time.Millisecond),
		report.Added, report.Updated, report.Removed, report.Unchanged)

	for _, failure := range report.Failures {
		cmd.Printf("  failed: %s: %s\n", failure.Path, failure.Reason)
	}
	if len(report.Failures) > 0 {
		cmd.Printf("%d notes failed and will be retried next run.\n", len(report.Failures))
	}

	return nil
}

// indexWithProgress runs the sync while displaying progress updates.
func indexWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	indexer driving.Indexer,
) (*domain.SyncReport, error) {
	type result struct {
		report *domain.SyncReport
		err    error
	}

	resCh := make(chan result, 1)
	go func() {
		report, err := indexer.Synchronize(ctx, indexFull)
		resCh <- result{report, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := indexer.Status(ctx)
			if statusErr == nil && status != nil && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d notes", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}
