package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <psalm[:start[-end]]>",
	Short: "Fetch the verses of a psalm",
	Long: `Fetch a psalm, or a verse range within it, from the verse cache.

Examples:
  psalmseek lookup 23
  psalmseek lookup 119:1-8
  psalmseek lookup 46:10`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	psalm, start, end, err := parseReference(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	db := mustOpenVerseCache(cfg.CachePath)
	defer db.Close()

	verses, err := db.GetRange(psalm, start, end)
	if err != nil {
		exitWithError(ExitError, "looking up Psalm %d: %v", psalm, err)
	}
	if len(verses) == 0 {
		exitWithError(ExitDataError, "Psalm %d has no verses in range", psalm)
	}

	if humanOutput {
		fmt.Printf("Psalm %d\n\n", psalm)
		for _, v := range verses {
			fmt.Printf("%d. %s\n", v.Verse, v.Text)
		}
	} else {
		outputJSON(verses)
	}
	return nil
}

// parseReference parses "23", "119:1-8", or "46:10" into psalm number
// and verse range. Zero start/end mean the whole psalm.
func parseReference(ref string) (psalm, start, end int, err error) {
	psalmPart, versePart, hasVerses := strings.Cut(ref, ":")

	psalm, err = strconv.Atoi(strings.TrimSpace(psalmPart))
	if err != nil || psalm <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid psalm number %q", psalmPart)
	}
	if !hasVerses {
		return psalm, 0, 0, nil
	}

	startPart, endPart, hasRange := strings.Cut(versePart, "-")
	start, err = strconv.Atoi(strings.TrimSpace(startPart))
	if err != nil || start <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid verse number %q", startPart)
	}
	if !hasRange {
		return psalm, start, start, nil
	}

	end, err = strconv.Atoi(strings.TrimSpace(endPart))
	if err != nil || end < start {
		return 0, 0, 0, fmt.Errorf("invalid verse range %q", versePart)
	}
	return psalm, start, end, nil
}
