package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

var summarizeAugmented bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [topic]",
	Short: "Summarize your notes on a topic",
	Long: `Retrieves the notes most relevant to a topic and composes a summary,
grouped by tag. With --augmented the summary is generated by the
configured model instead of composed locally.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "require a tag (repeatable)")
	summarizeCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of source notes")
	summarizeCmd.Flags().BoolVar(&summarizeAugmented, "augmented", false, "generate the summary with the configured model")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	spec, err := buildQuerySpec(args[0])
	if err != nil {
		return err
	}

	mode := domain.AnswerModeLocal
	if summarizeAugmented {
		mode = domain.AnswerModeAugmented
	}

	answer, err := answerService.Summarize(context.Background(), args[0], *spec, mode)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}
