package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/psalmseek/psalmseek/internal/devotion"
	"github.com/psalmseek/psalmseek/internal/retriever"
	"github.com/spf13/cobra"
)

var (
	semanticLimit int
	semanticMood  string
)

func init() {
	rootCmd.AddCommand(semanticCmd)

	semanticCmd.Flags().IntVarP(&semanticLimit, "limit", "l", DefaultSemanticLimit, "Maximum number of results")
	semanticCmd.Flags().StringVarP(&semanticMood, "mood", "m", "none",
		fmt.Sprintf("Posture to flavor the query (%s)", strings.Join(devotion.Moods(), ", ")))
}

// SemanticResponse is the response for the semantic search command.
type SemanticResponse struct {
	Query   string             `json:"query"`
	Results []retriever.Result `json:"results"`
	Total   int                `json:"total"`
	Model   string             `json:"model"`
}

var semanticCmd = &cobra.Command{
	Use:   "semantic <query>",
	Short: "Search psalm blocks by semantic similarity",
	Long: `Search psalm blocks using semantic similarity to the query.

Unlike keyword search, semantic search understands the meaning of your
words and finds passages with related themes, even without exact word
matches. An optional --mood flavors the query toward a spiritual
posture before embedding.

Requires the index to be built first with 'psalmseek index build'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSemantic,
}

func runSemantic(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prompt := strings.TrimSpace(args[0])
	if prompt == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	cfg := mustLoadConfig()
	client := newOllamaClient(cfg)

	r, err := retriever.New(cfg.IndexPath, client)
	if err != nil {
		exitWithError(ExitError, "loading index: %v", err)
	}

	query := devotion.QueryForMood(semanticMood, prompt)
	results, err := r.Search(ctx, query, semanticLimit)
	if err != nil {
		var notReady *retriever.NotReadyError
		if errors.As(err, &notReady) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		fmt.Printf("Search: %q\n", query)
		fmt.Printf("Found %d blocks\n\n", len(results))
		printResultsHuman(results)
	} else {
		outputJSON(SemanticResponse{
			Query:   query,
			Results: results,
			Total:   len(results),
			Model:   cfg.EmbedModel,
		})
	}
	return nil
}
