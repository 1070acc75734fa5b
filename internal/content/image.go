package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/pkg/log"
)

// ChapterImage returns the public URL of an illustrative image for one
// chapter. An existing blob younger than the image TTL is reused; otherwise a
// new image is generated and the blob overwritten. A previously cached
// devotional summary, when present, grounds the prompt. Returns an empty
// string on failure.
func (s *Service) ChapterImage(ctx context.Context, version, book string, chapter int) string {
	key := strings.ReplaceAll(fmt.Sprintf("%s/%s/%d.png", version, book, chapter), " ", "_")

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		log.Error("Failed to probe image blob %s: %v", key, err)
		return ""
	}
	if exists {
		modified, err := s.blobs.LastModified(ctx, key)
		if err != nil {
			log.Error("Failed to read image blob age for %s: %v", key, err)
			return ""
		}
		age := s.now().Sub(modified)
		if age < s.imageTTL {
			log.Info("Found existing image for %s %d (age %.1f days).", book, chapter, age.Hours()/24)
			return s.blobs.URL(key)
		}
		log.Info("Image for %s %d expired (%.1f days), regenerating.", book, chapter, age.Hours()/24)
	}

	prompt := fmt.Sprintf(
		"Create a detailed, reverent, classical-style image representing the main themes of %s chapter %d from the Bible. Avoid modern elements or text.",
		book, chapter,
	)
	summaryID := fmt.Sprintf("%s:%d:%s", book, chapter, version)
	summary, ok, err := s.cache.GetCached(ctx, summaryID, bible.CachePartition(book, bible.KindSummary, bible.ModeDevotional))
	if err != nil {
		log.Warn("Summary lookup for image grounding failed for %s: %v", summaryID, err)
	}
	if ok && strings.TrimSpace(summary) != "" {
		prompt += fmt.Sprintf(" Use the following context to guide your composition: %s", summary)
	}

	data, err := s.gen.GenerateImage(ctx, prompt, s.imageSize)
	if err != nil {
		log.Error("Failed to generate image for %s %d: %v", book, chapter, err)
		return ""
	}

	if err := s.blobs.Upload(ctx, key, data, "image/png"); err != nil {
		log.Error("Failed to store image for %s %d: %v", book, chapter, err)
		return ""
	}
	log.Info("Uploaded new image for %s %d.", book, chapter)
	return s.blobs.URL(key)
}
