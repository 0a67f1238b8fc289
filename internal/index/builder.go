package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/psalmseek/psalmseek/internal/corpus"
)

// embedConcurrency bounds parallel embedding calls against the local
// Ollama server. Blocks are independent, so calls may run concurrently;
// each worker writes to its own row index, keeping the archive ordering
// deterministic regardless of scheduling.
const embedConcurrency = 4

// Embedder generates an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedModel() string
}

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// BuildStats contains statistics from index building.
type BuildStats struct {
	BlocksIndexed    int           `json:"blocks_indexed"`
	Dimensions       int           `json:"dimensions"`
	Duration         time.Duration `json:"duration"`
	ArchiveSizeBytes int64         `json:"archive_size_bytes"`
}

// Builder constructs an embedding archive from psalm blocks.
type Builder struct {
	embedder Embedder
	progress ProgressReporter
}

// NewBuilder creates a new index builder.
func NewBuilder(embedder Embedder) *Builder {
	return &Builder{embedder: embedder}
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// enrich prefixes a block's text with its psalm label so embeddings stay
// anchored to source identity even when the text omits verse numbers.
func enrich(block corpus.Block) string {
	return fmt.Sprintf("Psalm %d (%d-%d)\n%s", block.Psalm, block.VerseStart, block.VerseEnd, block.Text)
}

// Build embeds every block and assembles the archive in memory.
// Any embedding failure aborts the whole build; nothing is persisted
// here — the caller saves the returned archive.
func (b *Builder) Build(ctx context.Context, blocks []corpus.Block) (*Archive, *BuildStats, error) {
	startTime := time.Now()
	total := len(blocks)

	a := &Archive{
		Version:   CurrentArchiveVersion,
		ModelName: b.embedder.EmbedModel(),
		CreatedAt: time.Now(),
		Texts:     make([]string, total),
		Meta:      make([]BlockMeta, total),
		Emb:       make([][]float32, total),
	}

	for i, block := range blocks {
		a.Texts[i] = block.Text
		a.Meta[i] = BlockMeta{
			ID:         block.ID,
			Psalm:      block.Psalm,
			VerseStart: block.VerseStart,
			VerseEnd:   block.VerseEnd,
		}
	}

	sem := make(chan struct{}, embedConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	done := 0

	for i := range blocks {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			if firstErr != nil {
				mu.Unlock()
				return
			}
			mu.Unlock()

			emb, err := b.embedder.Embed(ctx, enrich(blocks[idx]))
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("embedding block %d (%s): %w",
						blocks[idx].ID, blocks[idx].Label(), err)
				}
				mu.Unlock()
				return
			}

			// Each goroutine writes only its own row.
			a.Emb[idx] = Normalize(emb)

			mu.Lock()
			done++
			current := done
			mu.Unlock()
			if b.progress != nil {
				b.progress.OnProgress(current, total)
			}
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if total > 0 {
		a.Dimensions = len(a.Emb[0])
	}
	if err := a.validate(); err != nil {
		return nil, nil, err
	}

	stats := &BuildStats{
		BlocksIndexed: total,
		Dimensions:    a.Dimensions,
		Duration:      time.Since(startTime),
	}
	return a, stats, nil
}
