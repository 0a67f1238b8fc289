// Package corpus loads verse-level Bible data and extracts the Psalms.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrNoPsalms is returned when the source corpus contains no Psalms verses.
var ErrNoPsalms = fmt.Errorf("no Psalms verses found in corpus")

// FlexInt decodes a JSON number or a numeric string.
// Verse corpora in the wild store chapter/verse either way.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("missing integer value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing %q as integer: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}

// Verse is a single verse record from the source corpus.
type Verse struct {
	Book    string  `json:"book"`
	Chapter FlexInt `json:"chapter"`
	Verse   FlexInt `json:"verse"`
	Text    string  `json:"text"`
}

// rawVerse tolerates records with malformed chapter/verse fields; those
// records are dropped rather than failing the whole load.
type rawVerse struct {
	Book    string          `json:"book"`
	Chapter json.RawMessage `json:"chapter"`
	Verse   json.RawMessage `json:"verse"`
	Text    string          `json:"text"`
}

// IsPsalmsBook reports whether a book field names the Psalms.
// Tolerant to common variants: "Psalms", "Psalm", "PSALMS", "Psalm 119".
func IsPsalmsBook(book string) bool {
	b := strings.ToLower(strings.TrimSpace(book))
	return b == "psalms" || b == "psalm" || strings.HasPrefix(b, "psalm")
}

// LoadVerses reads a verse-level Bible JSON file. The file is an array of
// objects with book, chapter, verse, and text fields.
func LoadVerses(path string) ([]Verse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("missing required file: %s", path)
		}
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var raw []rawVerse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}

	verses := make([]Verse, 0, len(raw))
	for _, r := range raw {
		ch, ok := parseFlexInt(r.Chapter)
		if !ok {
			continue
		}
		vn, ok := parseFlexInt(r.Verse)
		if !ok {
			continue
		}
		verses = append(verses, Verse{
			Book:    r.Book,
			Chapter: ch,
			Verse:   vn,
			Text:    r.Text,
		})
	}
	return verses, nil
}

func parseFlexInt(data json.RawMessage) (FlexInt, bool) {
	if len(data) == 0 {
		return 0, false
	}
	var f FlexInt
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	return f, true
}

// GroupPsalms filters verses to the Psalms and groups them by psalm
// number (the chapter field), each group sorted by verse number.
// Records with empty text are dropped.
func GroupPsalms(verses []Verse) map[int][]Verse {
	byPsalm := make(map[int][]Verse)
	for _, v := range verses {
		if !IsPsalmsBook(v.Book) {
			continue
		}
		if strings.TrimSpace(v.Text) == "" {
			continue
		}
		v.Text = strings.TrimSpace(v.Text)
		byPsalm[int(v.Chapter)] = append(byPsalm[int(v.Chapter)], v)
	}

	for p := range byPsalm {
		sort.Slice(byPsalm[p], func(i, j int) bool {
			return byPsalm[p][i].Verse < byPsalm[p][j].Verse
		})
	}
	return byPsalm
}

// PsalmNumbers returns the sorted psalm numbers present in a grouping.
func PsalmNumbers(byPsalm map[int][]Verse) []int {
	nums := make([]int, 0, len(byPsalm))
	for p := range byPsalm {
		nums = append(nums, p)
	}
	sort.Ints(nums)
	return nums
}
