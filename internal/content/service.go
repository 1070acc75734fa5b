// Package content implements the cache-aside orchestration for generated
// Bible content: explanations, summaries, modern translations, similar-verse
// sets and chapter imagery.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/retry"
	"github.com/scripturai/scriptura/internal/store"
	"github.com/scripturai/scriptura/pkg/log"
)

// VerseStore is the read side of the verse database.
type VerseStore interface {
	GetVerse(ctx context.Context, id string) (bible.VerseRecord, error)
	GetChapter(ctx context.Context, version, book string, chapter int) ([]bible.VerseRecord, error)
	FindNearest(ctx context.Context, version, excludeID string, vector []float32, limit int, excludeChapter *store.ChapterRef) ([]bible.SimilarVerse, error)
}

// ContentCache is the generated-content cache.
type ContentCache interface {
	GetCached(ctx context.Context, id, partition string) (string, bool, error)
	UpsertCached(ctx context.Context, id, partition, payload string) error
}

// Generator calls the external generation API.
type Generator interface {
	CompleteChat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (string, error)
	GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error)
}

// BlobStore holds generated chapter images.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	LastModified(ctx context.Context, key string) (time.Time, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

const (
	defaultImageTTL  = 180 * 24 * time.Hour
	defaultImageSize = "1536x1024"
)

// Service is the cache-aside orchestrator. Its public methods never return
// errors: total failure collapses to an empty result so the HTTP layer can
// present a uniform response.
type Service struct {
	verses VerseStore
	cache  ContentCache
	gen    Generator
	blobs  BlobStore

	retry     retry.Policy
	imageTTL  time.Duration
	imageSize string
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRetryPolicy overrides the generation retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) { s.retry = p }
}

// WithImageTTL overrides the chapter-image staleness window.
func WithImageTTL(ttl time.Duration) Option {
	return func(s *Service) { s.imageTTL = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(verses VerseStore, cache ContentCache, gen Generator, blobs BlobStore, opts ...Option) *Service {
	p := retry.Default()
	p.Retryable = func(err error) bool { return errors.Is(err, llm.ErrEmptyCompletion) }

	s := &Service{
		verses:    verses,
		cache:     cache,
		gen:       gen,
		blobs:     blobs,
		retry:     p,
		imageTTL:  defaultImageTTL,
		imageSize: defaultImageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getOrCompute is the cache-aside core. It checks the cache, computes on
// miss, and write-backs non-empty results. A cache-write failure is logged
// and the freshly computed content is still returned. Compute failures
// collapse to the empty string.
func (s *Service) getOrCompute(ctx context.Context, id, partition, description string, compute func(ctx context.Context) (string, error)) string {
	cached, ok, err := s.cache.GetCached(ctx, id, partition)
	if err != nil {
		log.Error("Cache lookup failed for %s: %v", description, err)
	}
	if ok && strings.TrimSpace(cached) != "" {
		log.Info("Cache hit for %s.", description)
		return cached
	}
	log.Info("Cache miss for %s.", description)

	content, err := compute(ctx)
	if err != nil {
		log.Error("An error occurred while fetching %s: %v", description, err)
		return ""
	}
	if strings.TrimSpace(content) == "" {
		return ""
	}

	if err := s.cache.UpsertCached(ctx, id, partition, content); err != nil {
		log.Error("Failed to cache %s: %v", description, err)
	} else {
		log.Info("Cached %s.", description)
	}
	return content
}

// completeWithRetry invokes the chat model under the fixed retry policy.
// Only empty completions are retried; transport errors surface immediately.
func (s *Service) completeWithRetry(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (string, error) {
	var content string
	err := s.retry.Do(ctx, func() error {
		var err error
		content, err = s.gen.CompleteChat(ctx, messages, opts)
		return err
	})
	if err != nil {
		return "", err
	}
	return content, nil
}
