// Package storage maintains an ephemeral SQLite cache of psalm verses
// for fast keyword search and verse lookup. The cache is derived data:
// it is rebuilt wholesale from the verse corpus and never authoritative.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/psalmseek/psalmseek/internal/corpus"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// VerseRow is a verse as stored in the cache.
type VerseRow struct {
	Psalm int    `json:"psalm"`
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// OpenDB opens or creates the verse cache at the given path.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS verses (
			psalm INTEGER NOT NULL,
			verse INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (psalm, verse)
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS verses_fts USING fts5(
			psalm,
			verse,
			text
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and repopulates it from grouped psalm verses.
// Returns the number of verses inserted.
func (d *DB) Rebuild(byPsalm map[int][]corpus.Verse) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM verses"); err != nil {
		return 0, fmt.Errorf("clearing verses table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM verses_fts"); err != nil {
		return 0, fmt.Errorf("clearing verses_fts table: %w", err)
	}

	verseStmt, err := tx.Prepare("INSERT INTO verses (psalm, verse, text) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing verses insert: %w", err)
	}
	defer verseStmt.Close()

	ftsStmt, err := tx.Prepare("INSERT INTO verses_fts (psalm, verse, text) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	count := 0
	for psalm, verses := range byPsalm {
		for _, v := range verses {
			if _, err := verseStmt.Exec(psalm, int(v.Verse), v.Text); err != nil {
				return 0, fmt.Errorf("inserting Psalm %d:%d: %w", psalm, v.Verse, err)
			}
			if _, err := ftsStmt.Exec(psalm, int(v.Verse), v.Text); err != nil {
				return 0, fmt.Errorf("indexing Psalm %d:%d: %w", psalm, v.Verse, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

// SearchText runs a full-text keyword search over verse texts.
func (d *DB) SearchText(query string, limit int) ([]VerseRow, error) {
	rows, err := d.db.Query(`
		SELECT psalm, verse, text FROM verses_fts
		WHERE verses_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching verses: %w", err)
	}
	defer rows.Close()

	return scanVerses(rows)
}

// GetRange returns the verses of one psalm within [start, end].
// A zero end means "through the last verse".
func (d *DB) GetRange(psalm, start, end int) ([]VerseRow, error) {
	if end == 0 {
		end = 1<<31 - 1
	}
	rows, err := d.db.Query(`
		SELECT psalm, verse, text FROM verses
		WHERE psalm = ? AND verse >= ? AND verse <= ?
		ORDER BY verse
	`, psalm, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying Psalm %d: %w", psalm, err)
	}
	defer rows.Close()

	return scanVerses(rows)
}

// Count returns the number of cached verses.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM verses").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting verses: %w", err)
	}
	return n, nil
}

func scanVerses(rows *sql.Rows) ([]VerseRow, error) {
	var out []VerseRow
	for rows.Next() {
		var v VerseRow
		if err := rows.Scan(&v.Psalm, &v.Verse, &v.Text); err != nil {
			return nil, fmt.Errorf("scanning verse: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading verses: %w", err)
	}
	return out, nil
}
