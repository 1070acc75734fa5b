package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/scripturai/scriptura/internal/bible"
)

// UpsertVerse writes a verse document, overwriting any existing document with
// the same id (last write wins).
func (s *SQLiteStore) UpsertVerse(ctx context.Context, rec bible.VerseRecord) error {
	if rec.ID == "" {
		rec.ID = bible.DocumentID(rec.Book, rec.Chapter, rec.Verse, rec.Version)
	}
	if rec.VerseID == "" {
		rec.VerseID = bible.CrossVersionID(rec.Book, rec.Chapter, rec.Verse)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO verses (id, verse_id, version, book, chapter, verse, text, vector, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			verse_id=excluded.verse_id,
			version=excluded.version,
			book=excluded.book,
			chapter=excluded.chapter,
			verse=excluded.verse,
			text=excluded.text,
			vector=excluded.vector,
			updated_at=excluded.updated_at`,
		rec.ID,
		rec.VerseID,
		rec.Version,
		rec.Book,
		rec.Chapter,
		rec.Verse,
		rec.Text,
		serializeVector(rec.Vector),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert verse %s: %w", rec.ID, err)
	}
	return nil
}

// GetVerse fetches one verse document by id. Returns ErrNotFound when absent.
func (s *SQLiteStore) GetVerse(ctx context.Context, id string) (bible.VerseRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, verse_id, version, book, chapter, verse, text, vector
		 FROM verses WHERE id = ?`,
		id,
	)
	rec, err := scanVerse(row)
	if err == sql.ErrNoRows {
		return bible.VerseRecord{}, ErrNotFound
	}
	if err != nil {
		return bible.VerseRecord{}, fmt.Errorf("get verse %s: %w", id, err)
	}
	return rec, nil
}

// GetChapter returns all verses of a chapter in verse order. An unknown
// chapter yields an empty slice, not an error.
func (s *SQLiteStore) GetChapter(ctx context.Context, version, book string, chapter int) ([]bible.VerseRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, verse_id, version, book, chapter, verse, text, vector
		 FROM verses
		 WHERE version = ? AND book = ? AND chapter = ?
		 ORDER BY verse`,
		version, book, chapter,
	)
	if err != nil {
		return nil, fmt.Errorf("get chapter %s %d (%s): %w", book, chapter, version, err)
	}
	defer rows.Close()

	return collectVerses(rows)
}

// GetVerseVersions returns the same verse across every stored translation,
// excluding the version the caller already has.
func (s *SQLiteStore) GetVerseVersions(ctx context.Context, book string, chapter, verse int, excludeVersion string) ([]bible.VerseRecord, error) {
	verseID := bible.CrossVersionID(book, chapter, verse)
	excludeID := bible.DocumentID(book, chapter, verse, excludeVersion)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, verse_id, version, book, chapter, verse, text, vector
		 FROM verses
		 WHERE verse_id = ? AND id != ?
		 ORDER BY version`,
		verseID, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("get verse versions %s: %w", verseID, err)
	}
	defer rows.Close()

	return collectVerses(rows)
}

// ChapterRef identifies a chapter to exclude from nearest-neighbor results.
type ChapterRef struct {
	Book    string
	Chapter int
}

// FindNearest ranks all embedded verses of a version by ascending cosine
// distance to the query vector and returns the top limit records. The source
// verse itself is always excluded; excludeChapter optionally drops every
// verse of one book+chapter. Distance ties keep scan order, which is
// arbitrary.
func (s *SQLiteStore) FindNearest(ctx context.Context, version, excludeID string, vector []float32, limit int, excludeChapter *ChapterRef) ([]bible.SimilarVerse, error) {
	if limit <= 0 || len(vector) == 0 {
		return nil, nil
	}

	query := `SELECT id, verse_id, text, vector
		 FROM verses
		 WHERE version = ? AND id != ? AND vector IS NOT NULL`
	args := []interface{}{version, excludeID}
	if excludeChapter != nil {
		query += ` AND NOT (book = ? AND chapter = ?)`
		args = append(args, excludeChapter.Book, excludeChapter.Chapter)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find nearest for %s: %w", excludeID, err)
	}
	defer rows.Close()

	type candidate struct {
		verse    bible.SimilarVerse
		distance float64
	}
	var candidates []candidate
	for rows.Next() {
		var (
			id, verseID, text string
			blob              []byte
		)
		if err := rows.Scan(&id, &verseID, &text, &blob); err != nil {
			return nil, fmt.Errorf("scan nearest candidate: %w", err)
		}
		other := deserializeVector(blob)
		if len(other) == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			verse:    bible.SimilarVerse{VerseID: verseID, Text: text},
			distance: cosineDistance(vector, other),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearest candidates: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]bible.SimilarVerse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.verse)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVerse(row rowScanner) (bible.VerseRecord, error) {
	var (
		rec  bible.VerseRecord
		blob []byte
	)
	err := row.Scan(&rec.ID, &rec.VerseID, &rec.Version, &rec.Book, &rec.Chapter, &rec.Verse, &rec.Text, &blob)
	if err != nil {
		return bible.VerseRecord{}, err
	}
	rec.Vector = deserializeVector(blob)
	return rec, nil
}

func collectVerses(rows *sql.Rows) ([]bible.VerseRecord, error) {
	var out []bible.VerseRecord
	for rows.Next() {
		rec, err := scanVerse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verse: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verses: %w", err)
	}
	return out, nil
}
