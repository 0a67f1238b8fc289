// Package main provides the psalmseek CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/psalmseek/psalmseek/internal/config"
	"github.com/psalmseek/psalmseek/internal/ollama"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "psalmseek",
	Short: "Semantic search and devotional reflection over the Psalms",
	Long: `psalmseek retrieves passages of the Psalms by semantic similarity
to a free-text prompt, using a locally hosted Ollama model for
embeddings, and can generate a devotional reflection on a chosen
passage.

Build the index once with 'psalmseek index build', then search with
'psalmseek semantic' or generate reflections with 'psalmseek reflect'.
All commands output JSON by default; pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newOllamaClient builds an Ollama client from configuration.
func newOllamaClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClient(
		ollama.WithHost(cfg.OllamaHost),
		ollama.WithLLMModel(cfg.LLMModel),
		ollama.WithEmbedModel(cfg.EmbedModel),
	)
}
