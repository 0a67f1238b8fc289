package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/psalmseek/psalmseek/internal/corpus"
	"github.com/psalmseek/psalmseek/internal/index"
	"github.com/psalmseek/psalmseek/internal/storage"
	"github.com/spf13/cobra"
)

var noProgress bool

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)

	indexBuildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the psalm embedding index",
	Long:  `Commands for building and checking the psalm embedding index.`,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status           string  `json:"status"`
	BlocksIndexed    int     `json:"blocks_indexed"`
	VersesCached     int     `json:"verses_cached"`
	Dimensions       int     `json:"dimensions"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Model            string  `json:"model"`
	ArchiveSizeBytes int64   `json:"archive_size_bytes"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or rebuild the psalm index",
	Long: `Build or rebuild the psalm embedding index from the verse corpus.

Extracts all Psalms from the Bible JSON, chunks each psalm into
overlapping verse blocks, embeds every block, and writes the index
archive plus a human-inspectable block list. Safe to rerun: the same
corpus and settings deterministically regenerate the same blocks.

Requires Ollama to be running with the embedding model available.
Run 'ollama pull nomic-embed-text' to download the default model.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	client := newOllamaClient(cfg)
	if err := client.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}
	hasModel, err := client.HasModel(ctx, cfg.EmbedModel)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", cfg.EmbedModel, cfg.EmbedModel)
	}

	verses, err := corpus.LoadVerses(cfg.BiblePath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	blocks, err := corpus.ChunkAll(verses, corpus.Params{
		BlockVerses:         cfg.BlockVerses,
		StrideVerses:        cfg.StrideVerses,
		WholeIfAtMost:       cfg.WholeIfAtMost,
		IncludeVerseNumbers: cfg.IncludeVerseNumbers,
	})
	if err != nil {
		exitWithError(ExitDataError, "%v\n\nCheck that the 'book' field uses something like 'Psalms' and that chapters/verses are present.", err)
	}

	// Derived artifacts written before embedding: the block list for
	// inspection and the verse cache for keyword search.
	if err := corpus.WriteBlocks(blocks, cfg.BlocksPath); err != nil {
		exitWithError(ExitError, "writing block list: %v", err)
	}
	versesCached, err := rebuildVerseCache(cfg.CachePath, verses)
	if err != nil {
		exitWithError(ExitError, "rebuilding verse cache: %v", err)
	}

	builder := index.NewBuilder(client)
	if !noProgress && humanOutput {
		builder.SetProgressReporter(index.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Embedding %d blocks...\n", len(blocks))
	}

	archive, stats, err := builder.Build(ctx, blocks)
	if err != nil {
		exitWithError(ExitError, "building index: %v", err)
	}

	if err := archive.Save(cfg.IndexPath); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}

	archiveSize, err := index.Size(cfg.IndexPath)
	if err != nil {
		archiveSize = 0 // Non-fatal
	}
	stats.ArchiveSizeBytes = archiveSize

	if humanOutput && !noProgress {
		fmt.Fprintf(os.Stderr, "\r%s\r", "                                                  ")
	}

	if humanOutput {
		fmt.Printf("\nBuild complete:\n")
		fmt.Printf("  Blocks indexed: %d\n", stats.BlocksIndexed)
		fmt.Printf("  Verses cached: %d\n", versesCached)
		fmt.Printf("  Embedding dim: %d\n", stats.Dimensions)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Archive size: %s\n", formatBytes(stats.ArchiveSizeBytes))
		fmt.Printf("  Model: %s\n", archive.ModelName)
	} else {
		outputJSON(IndexBuildResult{
			Status:           "complete",
			BlocksIndexed:    stats.BlocksIndexed,
			VersesCached:     versesCached,
			Dimensions:       stats.Dimensions,
			DurationSeconds:  stats.Duration.Seconds(),
			Model:            archive.ModelName,
			ArchiveSizeBytes: stats.ArchiveSizeBytes,
		})
	}
	return nil
}

func rebuildVerseCache(path string, verses []corpus.Verse) (int, error) {
	db, err := storage.OpenDB(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.Rebuild(corpus.GroupPsalms(verses))
}

// IndexCheckResult is the response for index check command.
type IndexCheckResult struct {
	Status           string `json:"status"`
	BlocksIndexed    int    `json:"blocks_indexed"`
	Dimensions       int    `json:"dimensions"`
	Model            string `json:"model"`
	IndexCreated     string `json:"index_created"`
	ArchiveSizeBytes int64  `json:"archive_size_bytes"`
	Path             string `json:"path"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check psalm index health",
	Long:  `Check the health and status of the psalm embedding index.`,
	RunE:  runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	archive, err := index.Load(cfg.IndexPath)
	if err != nil {
		if err == index.ErrArchiveNotFound {
			exitWithError(ExitConfigError, "Psalm index not found at %s\n\nRun 'psalmseek index build' to create it.", cfg.IndexPath)
		}
		exitWithError(ExitError, "loading index: %v", err)
	}

	archiveSize, _ := index.Size(cfg.IndexPath)

	result := IndexCheckResult{
		Status:           "healthy",
		BlocksIndexed:    archive.Len(),
		Dimensions:       archive.Dimensions,
		Model:            archive.ModelName,
		IndexCreated:     archive.CreatedAt.Format(time.RFC3339),
		ArchiveSizeBytes: archiveSize,
		Path:             cfg.IndexPath,
	}

	if humanOutput {
		fmt.Printf("Psalm Index Status: %s\n\n", result.Status)
		fmt.Printf("  Blocks indexed: %d\n", result.BlocksIndexed)
		fmt.Printf("  Embedding dim: %d\n", result.Dimensions)
		fmt.Printf("  Model: %s\n", result.Model)
		fmt.Printf("  Created: %s\n", archive.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Size: %s\n", formatBytes(archiveSize))
		fmt.Printf("  Path: %s\n", result.Path)
	} else {
		outputJSON(result)
	}
	return nil
}

// printProgress prints a progress bar to stderr.
func printProgress(current, total int) {
	if total == 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * float64(current) / float64(total))
	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "="
		} else if i == filled {
			bar += ">"
		} else {
			bar += " "
		}
	}
	fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%)", bar, current, total, pct)
}
