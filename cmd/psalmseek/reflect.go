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
	reflectMood  string
	reflectBlock int
)

func init() {
	rootCmd.AddCommand(reflectCmd)

	reflectCmd.Flags().StringVarP(&reflectMood, "mood", "m", "none",
		fmt.Sprintf("Posture to flavor the query (%s)", strings.Join(devotion.Moods(), ", ")))
	reflectCmd.Flags().IntVarP(&reflectBlock, "block", "b", 0,
		"Reflect on a specific block id instead of the top search result")
}

// ReflectResponse is the response for the reflect command.
type ReflectResponse struct {
	Query      string           `json:"query"`
	Block      retriever.Result `json:"block"`
	Reflection string           `json:"reflection"`
	Model      string           `json:"model"`
}

var reflectCmd = &cobra.Command{
	Use:   "reflect <prompt>",
	Short: "Generate a devotional reflection on a psalm passage",
	Long: `Search for the psalm block most similar to your prompt, then ask
the local model for a guided devotional reflection on it.

Pass --block to skip the search and reflect on a specific indexed
block (ids are listed in the blocks JSON artifact and in search
output).

Requires the index to be built and Ollama to be running.`,
	Args: cobra.ExactArgs(1),
	RunE: runReflect,
}

func runReflect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prompt := strings.TrimSpace(args[0])
	if prompt == "" {
		exitWithError(ExitError, "Prompt cannot be empty; your words are the doorway")
	}

	cfg := mustLoadConfig()
	client := newOllamaClient(cfg)

	r, err := retriever.New(cfg.IndexPath, client)
	if err != nil {
		exitWithError(ExitError, "loading index: %v", err)
	}

	query := devotion.QueryForMood(reflectMood, prompt)

	var block retriever.Result
	if reflectBlock > 0 {
		if !r.Ready() {
			exitWithError(ExitConfigError, "%v", &retriever.NotReadyError{Path: cfg.IndexPath})
		}
		var ok bool
		block, ok = r.Get(reflectBlock)
		if !ok {
			exitWithError(ExitDataError, "block %d not found in index", reflectBlock)
		}
	} else {
		results, err := r.Search(ctx, query, 1)
		if err != nil {
			var notReady *retriever.NotReadyError
			if errors.As(err, &notReady) {
				exitWithError(ExitConfigError, "%v", err)
			}
			exitWithError(ExitError, "searching: %v", err)
		}
		if len(results) == 0 {
			exitWithError(ExitDataError, "index is empty; rebuild with 'psalmseek index build'")
		}
		block = results[0]
	}

	reflection, err := devotion.Reflect(ctx, client, block, prompt)
	if err != nil {
		exitWithError(ExitError, "generating reflection: %v", err)
	}

	if humanOutput {
		fmt.Printf("Psalm %d:%d-%d\n\n", block.Psalm, block.VerseStart, block.VerseEnd)
		fmt.Printf("%s\n\n---\n\n%s\n", block.Text, reflection)
	} else {
		outputJSON(ReflectResponse{
			Query:      query,
			Block:      block,
			Reflection: reflection,
			Model:      cfg.LLMModel,
		})
	}
	return nil
}
