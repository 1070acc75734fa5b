package bible

import (
	"fmt"
	"strings"
)

// VerseRecord is the canonical verse document stored in the verse store.
// Identity is (book, chapter, verse, version); Text and Vector may be
// rewritten in place by the embedding pipeline, identity never changes.
type VerseRecord struct {
	ID      string    `json:"id"`      // "Book:Chapter:Verse:Version"
	VerseID string    `json:"verseId"` // "Book:Chapter:Verse", shared across versions
	Version string    `json:"version"` // e.g. "KJV"
	Book    string    `json:"book"`
	Chapter int       `json:"chapter"`
	Verse   int       `json:"verse"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"vector,omitempty"`
}

// DocumentID builds the unique verse document id.
func DocumentID(book string, chapter, verse int, version string) string {
	return fmt.Sprintf("%s:%d:%d:%s", book, chapter, verse, version)
}

// CrossVersionID builds the id shared by all translations of one verse.
func CrossVersionID(book string, chapter, verse int) string {
	return fmt.Sprintf("%s:%d:%d", book, chapter, verse)
}

// Ref returns the human-readable "Book:Chapter:Verse" reference of the record.
func (v VerseRecord) Ref() string {
	return CrossVersionID(v.Book, v.Chapter, v.Verse)
}

// HasText reports whether the record carries non-blank display text.
func (v VerseRecord) HasText() bool {
	return strings.TrimSpace(v.Text) != ""
}

// SimilarVerse is the trimmed projection returned by nearest-neighbor lookups
// and cached under the SimilarVerses partition.
type SimilarVerse struct {
	VerseID string `json:"verseId"`
	Text    string `json:"text"`
}

// Cache partition kinds. A cache partition combines the book with a kind and,
// where applicable, a generation mode: "John:Explanation:Devotional".
const (
	KindExplanation = "Explanation"
	KindSummary     = "Summary"
	KindTranslation = "Translation"
	KindSimilar     = "SimilarVerses"
)

// CachePartition builds a cache partition key from a book, a content kind and
// an optional mode discriminator.
func CachePartition(book, kind string, mode ...Mode) string {
	if len(mode) > 0 {
		return fmt.Sprintf("%s:%s:%s", book, kind, mode[0])
	}
	return fmt.Sprintf("%s:%s", book, kind)
}
