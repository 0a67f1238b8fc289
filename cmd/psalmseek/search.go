package main

import (
	"fmt"

	"github.com/psalmseek/psalmseek/internal/storage"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", DefaultKeywordLimit, "Maximum results to return")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search verses by keyword",
	Long: `Full-text keyword search over individual psalm verses.

This complements 'psalmseek semantic': keyword search finds exact
word matches, semantic search finds related themes.

Examples:
  psalmseek search "shepherd"
  psalmseek search "refuge AND strength"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenVerseCache(cfg.CachePath)
	defer db.Close()

	verses, err := db.SearchText(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if verses == nil {
		verses = []storage.VerseRow{}
	}

	if humanOutput {
		if len(verses) == 0 {
			fmt.Println("No verses found")
		} else {
			fmt.Printf("Found %d verses:\n\n", len(verses))
			for _, v := range verses {
				fmt.Printf("Psalm %d:%d  %s\n", v.Psalm, v.Verse, v.Text)
			}
		}
	} else {
		outputJSON(verses)
	}
	return nil
}

// mustOpenVerseCache opens the verse cache and verifies it has been
// populated, exiting with remediation otherwise.
func mustOpenVerseCache(path string) *storage.DB {
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening verse cache: %v", err)
	}
	n, err := db.Count()
	if err != nil {
		db.Close()
		exitWithError(ExitError, "reading verse cache: %v", err)
	}
	if n == 0 {
		db.Close()
		exitWithError(ExitConfigError, "Verse cache at %s is empty\n\nRun 'psalmseek index build' to populate it.", path)
	}
	return db
}
