package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Params controls how a psalm is split into verse blocks.
type Params struct {
	// BlockVerses is the window size in verses.
	BlockVerses int
	// StrideVerses is how far the window advances; overlap is
	// BlockVerses - StrideVerses.
	StrideVerses int
	// WholeIfAtMost keeps a psalm of at most this many verses as a
	// single block for coherence.
	WholeIfAtMost int
	// IncludeVerseNumbers prefixes each verse with "N. " in block text.
	IncludeVerseNumbers bool
}

// Block is a contiguous, possibly overlapping span of verses within one
// psalm, treated as a single retrievable unit.
type Block struct {
	ID         int    `json:"id"`
	Psalm      int    `json:"psalm"`
	VerseStart int    `json:"verse_start"`
	VerseEnd   int    `json:"verse_end"`
	Text       string `json:"text"`
}

// Label returns the human-readable reference for the block,
// e.g. "Psalm 23:1-6".
func (b Block) Label() string {
	return fmt.Sprintf("Psalm %d:%d-%d", b.Psalm, b.VerseStart, b.VerseEnd)
}

// MakeBlocks chunks one psalm's verses into blocks. Verses must already
// be sorted by verse number.
//
// A psalm of at most WholeIfAtMost verses becomes one whole block.
// Otherwise windows of BlockVerses are emitted, advancing by
// StrideVerses; the final window may be shorter than BlockVerses when
// the stride does not land exactly on the boundary, and emission stops
// once a window reaches the last verse.
func MakeBlocks(psalm int, verses []Verse, p Params) []Block {
	n := len(verses)
	if n == 0 {
		return nil
	}

	if n <= p.WholeIfAtMost {
		return []Block{{
			Psalm:      psalm,
			VerseStart: int(verses[0].Verse),
			VerseEnd:   int(verses[n-1].Verse),
			Text:       formatBlockText(verses, p.IncludeVerseNumbers),
		}}
	}

	var blocks []Block
	for i := 0; i < n; i += p.StrideVerses {
		j := i + p.BlockVerses
		if j > n {
			j = n
		}
		chunk := verses[i:j]
		blocks = append(blocks, Block{
			Psalm:      psalm,
			VerseStart: int(chunk[0].Verse),
			VerseEnd:   int(chunk[len(chunk)-1].Verse),
			Text:       formatBlockText(chunk, p.IncludeVerseNumbers),
		})
		if j >= n {
			break
		}
	}
	return blocks
}

// ChunkAll extracts the Psalms from the corpus and chunks every psalm,
// assigning sequential 1-based ids in psalm-number ascending order.
// Returns ErrNoPsalms when the corpus has no matching verses.
func ChunkAll(verses []Verse, p Params) ([]Block, error) {
	byPsalm := GroupPsalms(verses)
	if len(byPsalm) == 0 {
		return nil, ErrNoPsalms
	}

	var blocks []Block
	for _, psalm := range PsalmNumbers(byPsalm) {
		blocks = append(blocks, MakeBlocks(psalm, byPsalm[psalm], p)...)
	}
	for i := range blocks {
		blocks[i].ID = i + 1
	}
	return blocks, nil
}

func formatBlockText(verses []Verse, includeNumbers bool) string {
	lines := make([]string, len(verses))
	for i, v := range verses {
		if includeNumbers {
			lines[i] = fmt.Sprintf("%d. %s", v.Verse, v.Text)
		} else {
			lines[i] = v.Text
		}
	}
	return strings.Join(lines, "\n")
}

// WriteBlocks writes the block list as indented JSON. This is a derived,
// human-inspectable artifact; the retriever never reads it.
func WriteBlocks(blocks []Block, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blocks: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blocks: %w", err)
	}
	return nil
}
