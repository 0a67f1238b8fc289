// Package retriever serves cosine-similarity searches over the psalm
// embedding archive.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/psalmseek/psalmseek/internal/index"
)

// Embedder generates an embedding vector for a query.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NotReadyError is returned when a search is attempted before an index
// archive exists. It is a recoverable precondition failure, not a crash.
type NotReadyError struct {
	Path string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("index not found at %s; run 'psalmseek index build' first", e.Path)
}

// Result is one search hit.
type Result struct {
	ID         int     `json:"id"`
	Score      float32 `json:"score"`
	Psalm      int     `json:"psalm"`
	VerseStart int     `json:"verse_start"`
	VerseEnd   int     `json:"verse_end"`
	Text       string  `json:"text"`
}

// Retriever answers similarity queries against a loaded archive.
// The archive is read-only after load, so a Retriever is safe for
// concurrent readers.
type Retriever struct {
	indexPath string
	embedder  Embedder
	archive   *index.Archive
}

// New creates a retriever and eagerly attempts to load the archive.
// A missing archive leaves the retriever in a not-ready state rather
// than failing; any other load error is returned.
func New(indexPath string, embedder Embedder) (*Retriever, error) {
	r := &Retriever{
		indexPath: indexPath,
		embedder:  embedder,
	}

	a, err := index.Load(indexPath)
	if err != nil {
		if err == index.ErrArchiveNotFound {
			return r, nil
		}
		return nil, err
	}
	r.archive = a
	return r, nil
}

// Ready reports whether an archive has been loaded.
func (r *Retriever) Ready() bool {
	return r.archive != nil
}

// Archive returns the loaded archive, or nil when not ready.
func (r *Retriever) Archive() *index.Archive {
	return r.archive
}

// Search embeds the query and returns the min(k, N) most similar blocks
// ordered by descending cosine similarity. Embedding failures propagate
// unchanged from the client.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if r.archive == nil {
		return nil, &NotReadyError{Path: r.indexPath}
	}

	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	index.Normalize(q)

	n := r.archive.Len()
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}

	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		meta := r.archive.Meta[i]
		results = append(results, Result{
			ID:         meta.ID,
			Score:      index.Dot(q, r.archive.Emb[i]),
			Psalm:      meta.Psalm,
			VerseStart: meta.VerseStart,
			VerseEnd:   meta.VerseEnd,
			Text:       r.archive.Texts[i],
		})
	}

	// Stable sort: exactly-equal scores keep insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results[:k], nil
}

// Get returns the indexed block with the given id.
func (r *Retriever) Get(id int) (Result, bool) {
	if r.archive == nil {
		return Result{}, false
	}
	for i, meta := range r.archive.Meta {
		if meta.ID == id {
			return Result{
				ID:         meta.ID,
				Score:      0,
				Psalm:      meta.Psalm,
				VerseStart: meta.VerseStart,
				VerseEnd:   meta.VerseEnd,
				Text:       r.archive.Texts[i],
			}, true
		}
	}
	return Result{}, false
}
