// Package cli implements the recall command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
	"github.com/kestrel-labs/recall-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services the commands depend on. Wired by the composition root before
// Execute runs.
var (
	indexerService driving.Indexer
	searchService  driving.SearchService
	answerService  driving.AnswerService
	statsService   driving.StatsService
	responseCache  driven.ResponseCache
	noteSource     driven.DocumentSource
	metadataStore  driven.MetadataStore
)

// Services bundles everything the CLI needs.
type Services struct {
	Indexer  driving.Indexer
	Search   driving.SearchService
	Answer   driving.AnswerService
	Stats    driving.StatsService
	Cache    driven.ResponseCache
	Source   driven.DocumentSource
	Metadata driven.MetadataStore
}

// SetServices wires the service implementations into the commands.
func SetServices(s Services) {
	indexerService = s.Indexer
	searchService = s.Search
	answerService = s.Answer
	statsService = s.Stats
	responseCache = s.Cache
	noteSource = s.Source
	metadataStore = s.Metadata
}

// SetVersion overrides the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Search and ask questions over your markdown notes",
	Long: `Recall indexes a directory of markdown notes and answers questions
over them. Retrieval blends semantic similarity with keyword matching,
and everything runs against your local note corpus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
