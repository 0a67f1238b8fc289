// Package index builds and persists the psalm embedding index.
//
// The archive is an immutable snapshot of three parallel sequences of
// equal length: block texts, block metadata, and an N x D matrix of
// unit-normalized float32 embeddings. Row i of the matrix corresponds
// to Meta[i] and Texts[i]. The archive is written wholesale by the
// builder and loaded read-only by the retriever; updates require a
// full rebuild.
package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by archive operations.
var (
	ErrArchiveNotFound    = errors.New("psalm index not found")
	ErrUnsupportedVersion = errors.New("unsupported index version")
)

// CurrentArchiveVersion is the format version for compatibility
// checking. Increment on breaking changes to the archive layout.
const CurrentArchiveVersion = 1

// BlockMeta identifies one indexed block without its text or vector.
type BlockMeta struct {
	ID         int `json:"id"`
	Psalm      int `json:"psalm"`
	VerseStart int `json:"verse_start"`
	VerseEnd   int `json:"verse_end"`
}

// Archive is the persisted embedding index.
type Archive struct {
	Version    int
	ModelName  string
	Dimensions int
	CreatedAt  time.Time

	// Parallel sequences, all of length Len().
	Texts []string
	Meta  []BlockMeta
	Emb   [][]float32
}

// Len returns the number of indexed blocks.
func (a *Archive) Len() int {
	return len(a.Texts)
}

// validate checks the three-way parallelism invariant.
func (a *Archive) validate() error {
	if len(a.Meta) != len(a.Texts) || len(a.Emb) != len(a.Texts) {
		return fmt.Errorf("corrupt archive: %d texts, %d meta, %d embeddings",
			len(a.Texts), len(a.Meta), len(a.Emb))
	}
	for i, row := range a.Emb {
		if len(row) != a.Dimensions {
			return fmt.Errorf("corrupt archive: row %d has %d dimensions, want %d",
				i, len(row), a.Dimensions)
		}
	}
	return nil
}

// Save persists the archive atomically: it writes to a temporary file
// next to the target and renames on success, so a previously good index
// is never corrupted by a failed build.
func (a *Archive) Save(path string) error {
	if err := a.validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(a); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads an archive from disk, verifies the parallel-sequence
// invariant, and unit-normalizes the embedding rows.
// Returns ErrArchiveNotFound if the file does not exist.
func Load(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArchiveNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var a Archive
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if a.Version != CurrentArchiveVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'psalmseek index build')",
			ErrUnsupportedVersion, a.Version, CurrentArchiveVersion)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	// Rows are normalized at build time already; normalizing again on
	// load keeps the invariant even for hand-edited archives.
	NormalizeRows(a.Emb)
	return &a, nil
}

// Exists checks if an archive file exists at the path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the archive file size in bytes.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrArchiveNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}
