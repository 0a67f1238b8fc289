// Package devotion builds prompts for devotional reflections and the
// mood-flavored search queries that precede them.
package devotion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/psalmseek/psalmseek/internal/retriever"
)

// Generator produces text from system instructions and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// systemPrompt keeps the model in a reverent, non-manipulative register.
const systemPrompt = "You are a reverent biblical guide. Speak with humility. " +
	"Do not claim new revelation. Use Scripture-centered language. " +
	"Offer: (1) a short summary of what the Psalm is doing, " +
	"(2) a gentle invitation to respond in prayer, " +
	"(3) 2-3 journaling questions. " +
	"Avoid manipulative or condemnatory tone."

// moodPrefixes flavors a query toward a spiritual posture before
// embedding, steering retrieval without changing the user's words.
var moodPrefixes = map[string]string{
	"lament_trust":     "lament and sorrow moving toward trust and surrender: ",
	"fear_refuge":      "fear moving toward refuge and courage in God: ",
	"waiting_strength": "patient waiting and endurance, strength renewed: ",
	"repent_cleansing": "repentance, cleansing, mercy and restoration: ",
	"praise_thanks":    "praise, thanksgiving, adoration, joy: ",
	"none":             "",
}

// Moods returns the recognized mood names, sorted.
func Moods() []string {
	names := make([]string, 0, len(moodPrefixes))
	for name := range moodPrefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QueryForMood prepends the mood's posture phrase to the user prompt.
// Unknown moods leave the prompt unchanged.
func QueryForMood(mood, prompt string) string {
	prefix := moodPrefixes[mood]
	return strings.TrimSpace(prefix + strings.TrimSpace(prompt))
}

// buildPrompt assembles the user prompt for reflection generation.
func buildPrompt(posture string, block retriever.Result) string {
	return strings.TrimSpace(fmt.Sprintf(`User posture:
%s

Selected Scripture:
Psalm %d
%s

Now write a guided reflection that feels like entering God's courts: thanksgiving, awe, and nearness.`,
		strings.TrimSpace(posture), block.Psalm, block.Text))
}

// Reflect generates a devotional reflection on the chosen block.
func Reflect(ctx context.Context, g Generator, block retriever.Result, posture string) (string, error) {
	return g.Generate(ctx, systemPrompt, buildPrompt(posture, block))
}
