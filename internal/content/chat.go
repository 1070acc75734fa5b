package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/pkg/log"
)

// ChatRequest describes one generated-content lookup: what to generate, the
// context blocks to attach, and the cache identity of the artifact.
type ChatRequest struct {
	Mode    bible.Mode
	Version string
	Book    string
	Chapter int
	Verse   int

	UserPrompt            string
	IncludeChapterContext bool
	IncludeSimilarVerses  bool

	CacheID        string
	CachePartition string
	Description    string
}

// ChatCompletion returns the cached or freshly generated content for the
// request. Returns an empty string if no content could be obtained.
func (s *Service) ChatCompletion(ctx context.Context, req ChatRequest) string {
	return s.getOrCompute(ctx, req.CacheID, req.CachePartition, req.Description, func(ctx context.Context) (string, error) {
		messages := []llm.Message{
			llm.System(req.Mode.SystemBehavior()),
		}

		if req.IncludeChapterContext {
			chapter, err := s.verses.GetChapter(ctx, req.Version, req.Book, req.Chapter)
			if err != nil {
				// Context fetch failures never block generation; the prompt
				// is simply built without the chapter block.
				log.Warn("Skipping chapter context for %s %d (%s): %v", req.Book, req.Chapter, req.Version, err)
			} else if len(chapter) > 0 {
				var b strings.Builder
				fmt.Fprintf(&b, "Full Bible Chapter from %s:\n", req.Version)
				for _, v := range chapter {
					fmt.Fprintf(&b, "%s: %s\n", v.VerseID, v.Text)
				}
				messages = append(messages, llm.System(b.String()))
			}
		}

		if req.IncludeSimilarVerses {
			similar := s.SimilarVerses(ctx, req.Mode, req.Version, req.Book, req.Chapter, req.Verse, true)
			if len(similar) > 0 {
				var b strings.Builder
				fmt.Fprintf(&b, "Similar Verses from %s:\n", req.Version)
				for _, v := range similar {
					fmt.Fprintf(&b, "%s: %s\n", v.VerseID, v.Text)
				}
				messages = append(messages, llm.System(b.String()))
			}
		}

		messages = append(messages,
			llm.User(req.UserPrompt),
			llm.User(fmt.Sprintf("Mode: %s. Focus level: %s.", req.Mode.DisplayName(), focusLevel(req.Mode))),
		)

		opts := req.Mode.ChatOptions()
		return s.completeWithRetry(ctx, messages, &llm.ChatOptions{
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
		})
	})
}

func focusLevel(mode bible.Mode) string {
	if mode == bible.ModePastoral {
		return "scholarly"
	}
	return "educational"
}

// ExplainVerse returns a mode-shaped explanation of one verse, with full
// chapter and similar-verse context attached to the prompt.
func (s *Service) ExplainVerse(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int) string {
	cacheID := bible.DocumentID(book, chapter, verse, version)
	return s.ChatCompletion(ctx, ChatRequest{
		Mode:    mode,
		Version: version,
		Book:    book,
		Chapter: chapter,
		Verse:   verse,
		UserPrompt: fmt.Sprintf(
			"Explain %s:%d:%d from the %s version of the Bible. Do not use a title with the verse reference or quote at the top of your GitHub markdown response. Just go right into your explanation.",
			book, chapter, verse, version,
		),
		IncludeChapterContext: true,
		IncludeSimilarVerses:  true,
		CacheID:               cacheID,
		CachePartition:        bible.CachePartition(book, bible.KindExplanation, mode),
		Description:           fmt.Sprintf("an explanation for %s", cacheID),
	})
}

// SummarizeChapter returns a mode-shaped summary of one chapter.
func (s *Service) SummarizeChapter(ctx context.Context, mode bible.Mode, version, book string, chapter int) string {
	cacheID := fmt.Sprintf("%s:%d:%s", book, chapter, version)
	return s.ChatCompletion(ctx, ChatRequest{
		Mode:    mode,
		Version: version,
		Book:    book,
		Chapter: chapter,
		UserPrompt: fmt.Sprintf(
			"Summarize %s %d from the %s version of the Bible. At the top of your response (GitHub Markdown) use the following subtitle: Summary of %s %d (%s)",
			book, chapter, version, book, chapter, version,
		),
		IncludeChapterContext: true,
		IncludeSimilarVerses:  false,
		CacheID:               cacheID,
		CachePartition:        bible.CachePartition(book, bible.KindSummary, mode),
		Description:           fmt.Sprintf("a summary for %s", cacheID),
	})
}
