package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

var askAugmented bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over your notes",
	Long: `Retrieves relevant notes and composes an answer from them.
By default the answer is composed locally from note excerpts. With
--augmented the answer is generated by the configured model instead.
Answers are cached; repeating a question returns the cached answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "require a tag (repeatable)")
	askCmd.Flags().StringVar(&searchAfter, "after", "", "only notes modified on or after this date (YYYY-MM-DD)")
	askCmd.Flags().StringVar(&searchBefore, "before", "", "only notes modified on or before this date (YYYY-MM-DD)")
	askCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of source notes")
	askCmd.Flags().BoolVar(&askAugmented, "augmented", false, "generate the answer with the configured model")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	spec, err := buildQuerySpec(args[0])
	if err != nil {
		return err
	}

	mode := domain.AnswerModeLocal
	if askAugmented {
		mode = domain.AnswerModeAugmented
	}

	answer, err := answerService.Answer(context.Background(), args[0], *spec, mode)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}

// printAnswer renders an answer with its provenance.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.SourceIDs) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, id := range answer.SourceIDs {
			cmd.Printf("  - %s\n", id)
		}
	}

	var notes []string
	if answer.FromCache {
		notes = append(notes, "cached")
	}
	if answer.Degraded {
		notes = append(notes, "degraded")
	}
	if len(notes) > 0 {
		cmd.Println()
		for _, note := range notes {
			cmd.Printf("(%s)\n", note)
		}
	}
}
