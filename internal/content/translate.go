package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/store"
	"github.com/scripturai/scriptura/pkg/log"
)

// TranslateVerse returns a modern-English rendering of one verse. The result
// is mode-independent and cached per book under the Translation partition.
// Returns an empty string when the verse is unknown or generation fails.
func (s *Service) TranslateVerse(ctx context.Context, version, book string, chapter, verse int) string {
	id := bible.DocumentID(book, chapter, verse, version)
	return s.getOrCompute(ctx, id, bible.CachePartition(book, bible.KindTranslation), fmt.Sprintf("a translation for %s", id), func(ctx context.Context) (string, error) {
		source, err := s.verses.GetVerse(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("Verse %s not found, nothing to translate.", id)
				return "", nil
			}
			return "", err
		}
		if !source.HasText() {
			return "", nil
		}

		return s.completeWithRetry(ctx, []llm.Message{
			llm.System(bible.TranslationSystemBehavior),
			llm.User(fmt.Sprintf("%s: %s.", source.VerseID, source.Text)),
		}, nil)
	})
}
