package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/psalmseek/psalmseek/internal/retriever"
)

const (
	// DefaultSemanticLimit is the default result count for semantic search.
	DefaultSemanticLimit = 5

	// DefaultKeywordLimit is the default result count for keyword search.
	DefaultKeywordLimit = 20

	// SnippetMaxLen truncates block text in human-readable summaries.
	SnippetMaxLen = 240
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// printResultsHuman prints search results in human-readable format.
func printResultsHuman(results []retriever.Result) {
	for i, r := range results {
		fmt.Printf("%d. [%.3f] Psalm %d:%d-%d (block %d)\n",
			i+1, r.Score, r.Psalm, r.VerseStart, r.VerseEnd, r.ID)
		fmt.Printf("   %s\n\n", truncateString(r.Text, SnippetMaxLen))
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
