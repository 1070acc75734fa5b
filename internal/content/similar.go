package content

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/store"
	"github.com/scripturai/scriptura/pkg/log"
)

// SimilarVerses returns the nearest-neighbor verses for one verse, ranked by
// ascending vector distance. Fan-out follows the mode. When excludeChapter is
// set, verses from the source chapter are filtered out so chapter-context and
// similar-verse prompt blocks do not overlap. Returns nil when the verse is
// unknown or carries no embedding.
func (s *Service) SimilarVerses(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int, excludeChapter bool) []bible.SimilarVerse {
	id := bible.DocumentID(book, chapter, verse, version)
	partition := bible.CachePartition(book, bible.KindSimilar, mode)
	description := "similar verses for " + id

	payload := s.getOrCompute(ctx, id, partition, description, func(ctx context.Context) (string, error) {
		source, err := s.verses.GetVerse(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", nil
			}
			return "", err
		}
		if len(source.Vector) == 0 {
			log.Warn("Verse %s has no embedding, skipping similar-verse lookup.", id)
			return "", nil
		}

		var exclude *store.ChapterRef
		if excludeChapter {
			exclude = &store.ChapterRef{Book: book, Chapter: chapter}
		}
		similar, err := s.verses.FindNearest(ctx, version, id, source.Vector, mode.MaxSimilarVerses(), exclude)
		if err != nil {
			return "", err
		}
		if len(similar) == 0 {
			return "", nil
		}

		encoded, err := json.Marshal(similar)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	})
	if payload == "" {
		return nil
	}

	var similar []bible.SimilarVerse
	if err := json.Unmarshal([]byte(payload), &similar); err != nil {
		log.Error("Discarding unreadable similar-verse payload for %s: %v", id, err)
		return nil
	}
	return similar
}
