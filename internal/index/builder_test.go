package index

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/psalmseek/psalmseek/internal/corpus"
)

// fakeEmbedder derives a deterministic vector from the text so ordering
// bugs show up as content mismatches.
type fakeEmbedder struct {
	calls   atomic.Int32
	failOn  string
	lastDim int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	return []float32{
		float32(seed%97) + 1,
		float32(seed%89) + 1,
		float32(seed%83) + 1,
	}, nil
}

func (f *fakeEmbedder) EmbedModel() string {
	return "fake-model"
}

func testBlocks(n int) []corpus.Block {
	blocks := make([]corpus.Block, n)
	for i := 0; i < n; i++ {
		blocks[i] = corpus.Block{
			ID:         i + 1,
			Psalm:      i/2 + 1,
			VerseStart: 1,
			VerseEnd:   8,
			Text:       fmt.Sprintf("block %d text", i+1),
		}
	}
	return blocks
}

func TestBuild(t *testing.T) {
	emb := &fakeEmbedder{}
	builder := NewBuilder(emb)

	blocks := testBlocks(10)
	a, stats, err := builder.Build(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if a.Len() != 10 {
		t.Fatalf("expected 10 rows, got %d", a.Len())
	}
	if stats.BlocksIndexed != 10 {
		t.Errorf("stats.BlocksIndexed = %d, want 10", stats.BlocksIndexed)
	}
	if a.ModelName != "fake-model" {
		t.Errorf("model name = %s", a.ModelName)
	}
	if a.Dimensions != 3 || stats.Dimensions != 3 {
		t.Errorf("dimensions = %d/%d, want 3", a.Dimensions, stats.Dimensions)
	}

	// Parallel sequences line up with the input blocks.
	for i, b := range blocks {
		if a.Texts[i] != b.Text {
			t.Errorf("text %d = %q, want %q", i, a.Texts[i], b.Text)
		}
		if a.Meta[i].ID != b.ID || a.Meta[i].Psalm != b.Psalm {
			t.Errorf("meta %d = %+v, want block %d psalm %d", i, a.Meta[i], b.ID, b.Psalm)
		}
	}

	// Rows are unit-normalized.
	for i, row := range a.Emb {
		var sum float64
		for _, x := range row {
			sum += float64(x) * float64(x)
		}
		if math.Abs(math.Sqrt(sum)-1.0) > 0.0001 {
			t.Errorf("row %d norm = %v", i, math.Sqrt(sum))
		}
	}
}

func TestBuildDeterministicOrdering(t *testing.T) {
	// Embedding runs concurrently; the resulting rows must still match
	// block order. The fake embedder maps text to vector, so comparing
	// two runs catches any index shuffling.
	blocks := testBlocks(50)

	first, _, err := NewBuilder(&fakeEmbedder{}).Build(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, _, err := NewBuilder(&fakeEmbedder{}).Build(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := range first.Emb {
		for j := range first.Emb[i] {
			if first.Emb[i][j] != second.Emb[i][j] {
				t.Fatalf("row %d differs between runs", i)
			}
		}
	}
}

func TestBuildEmbedsEnrichedText(t *testing.T) {
	blocks := []corpus.Block{{ID: 1, Psalm: 23, VerseStart: 1, VerseEnd: 6, Text: "The LORD is my shepherd"}}

	var seen string
	emb := &capturingEmbedder{onEmbed: func(text string) { seen = text }}
	if _, _, err := NewBuilder(emb).Build(context.Background(), blocks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.HasPrefix(seen, "Psalm 23 (1-6)\n") {
		t.Errorf("embedded text should carry the psalm label prefix, got %q", seen)
	}
	if !strings.Contains(seen, "The LORD is my shepherd") {
		t.Errorf("embedded text should contain the block text, got %q", seen)
	}
}

type capturingEmbedder struct {
	onEmbed func(text string)
}

func (c *capturingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.onEmbed(text)
	return []float32{1, 0, 0}, nil
}

func (c *capturingEmbedder) EmbedModel() string { return "capture" }

func TestBuildFailureAborts(t *testing.T) {
	emb := &fakeEmbedder{failOn: "block 7"}
	_, _, err := NewBuilder(emb).Build(context.Background(), testBlocks(20))
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if !strings.Contains(err.Error(), "embedding block") {
		t.Errorf("error should identify the failing block, got: %v", err)
	}
}

func TestBuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder(&fakeEmbedder{}).Build(ctx, testBlocks(5))
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestBuildEmptyInput(t *testing.T) {
	a, stats, err := NewBuilder(&fakeEmbedder{}).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if a.Len() != 0 || stats.BlocksIndexed != 0 {
		t.Errorf("expected empty archive, got %d rows", a.Len())
	}
}

func TestBuildReportsProgress(t *testing.T) {
	builder := NewBuilder(&fakeEmbedder{})

	var reports atomic.Int32
	builder.SetProgressReporter(ProgressFunc(func(current, total int) {
		reports.Add(1)
		if total != 8 {
			t.Errorf("total = %d, want 8", total)
		}
	}))

	if _, _, err := builder.Build(context.Background(), testBlocks(8)); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if reports.Load() != 8 {
		t.Errorf("expected 8 progress reports, got %d", reports.Load())
	}
}
