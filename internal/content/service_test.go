package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/retry"
	"github.com/scripturai/scriptura/internal/store"
)

type fakeVerses struct {
	verses       map[string]bible.VerseRecord
	chapters     map[string][]bible.VerseRecord
	chapterErr   error
	nearest      []bible.SimilarVerse
	nearestErr   error
	nearestCalls int
	lastExclude  *store.ChapterRef
	lastLimit    int
}

func (f *fakeVerses) GetVerse(ctx context.Context, id string) (bible.VerseRecord, error) {
	v, ok := f.verses[id]
	if !ok {
		return bible.VerseRecord{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeVerses) GetChapter(ctx context.Context, version, book string, chapter int) ([]bible.VerseRecord, error) {
	if f.chapterErr != nil {
		return nil, f.chapterErr
	}
	return f.chapters[fmt.Sprintf("%s:%d:%s", book, chapter, version)], nil
}

func (f *fakeVerses) FindNearest(ctx context.Context, version, excludeID string, vector []float32, limit int, excludeChapter *store.ChapterRef) ([]bible.SimilarVerse, error) {
	f.nearestCalls++
	f.lastExclude = excludeChapter
	f.lastLimit = limit
	return f.nearest, f.nearestErr
}

type fakeCache struct {
	entries    map[string]string
	failWrites bool
	writes     int
}

func cacheKey(id, partition string) string { return id + "|" + partition }

func (f *fakeCache) GetCached(ctx context.Context, id, partition string) (string, bool, error) {
	payload, ok := f.entries[cacheKey(id, partition)]
	return payload, ok, nil
}

func (f *fakeCache) UpsertCached(ctx context.Context, id, partition, payload string) error {
	f.writes++
	if f.failWrites {
		return errors.New("cache unavailable")
	}
	if f.entries == nil {
		f.entries = map[string]string{}
	}
	f.entries[cacheKey(id, partition)] = payload
	return nil
}

type fakeGen struct {
	chatContent  string
	chatErr      error
	chatCalls    int
	lastMessages []llm.Message

	imageData   []byte
	imageErr    error
	imageCalls  int
	lastPrompt  string
}

func (f *fakeGen) CompleteChat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (string, error) {
	f.chatCalls++
	f.lastMessages = messages
	return f.chatContent, f.chatErr
}

func (f *fakeGen) GenerateImage(ctx context.Context, prompt string, size string) ([]byte, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	return f.imageData, f.imageErr
}

type fakeBlobs struct {
	exists   bool
	modified time.Time
	uploads  map[string][]byte
}

func (f *fakeBlobs) Exists(ctx context.Context, key string) (bool, error) { return f.exists, nil }

func (f *fakeBlobs) LastModified(ctx context.Context, key string) (time.Time, error) {
	return f.modified, nil
}

func (f *fakeBlobs) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeBlobs) URL(key string) string { return "https://cdn.test/" + key }

func immediateRetry() retry.Policy {
	p := retry.Default()
	p.Retryable = func(err error) bool { return errors.Is(err, llm.ErrEmptyCompletion) }
	p.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func newTestService(verses *fakeVerses, cache *fakeCache, gen *fakeGen, blobs *fakeBlobs, opts ...Option) *Service {
	opts = append([]Option{WithRetryPolicy(immediateRetry())}, opts...)
	return NewService(verses, cache, gen, blobs, opts...)
}

func john316() *fakeVerses {
	return &fakeVerses{
		verses: map[string]bible.VerseRecord{
			"John:3:16:KJV": {
				ID: "John:3:16:KJV", VerseID: "John:3:16", Version: "KJV",
				Book: "John", Chapter: 3, Verse: 16,
				Text:   "For God so loved the world...",
				Vector: []float32{1, 0, 0},
			},
		},
		chapters: map[string][]bible.VerseRecord{
			"John:3:KJV": {
				{VerseID: "John:3:16", Text: "For God so loved the world..."},
				{VerseID: "John:3:17", Text: "For God sent not his Son..."},
			},
		},
		nearest: []bible.SimilarVerse{
			{VerseID: "Romans:5:8", Text: "But God commendeth his love toward us..."},
		},
	}
}

func TestExplainVerseCachesAndReuses(t *testing.T) {
	verses := john316()
	cache := &fakeCache{}
	gen := &fakeGen{chatContent: "A verse about divine love."}
	svc := newTestService(verses, cache, gen, &fakeBlobs{})

	first := svc.ExplainVerse(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16)
	require.Equal(t, "A verse about divine love.", first)

	// Explanation plus the similar-verse context lookup.
	cached, ok := cache.entries[cacheKey("John:3:16:KJV", "John:Explanation:Devotional")]
	require.True(t, ok)
	assert.Equal(t, first, cached)
	_, ok = cache.entries[cacheKey("John:3:16:KJV", "John:SimilarVerses:Devotional")]
	assert.True(t, ok)

	chatCallsAfterFirst := gen.chatCalls
	second := svc.ExplainVerse(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16)
	assert.Equal(t, first, second)
	assert.Equal(t, chatCallsAfterFirst, gen.chatCalls, "cache hit must not call the generator again")
}

func TestExplainVersePromptIncludesContextBlocks(t *testing.T) {
	verses := john316()
	gen := &fakeGen{chatContent: "ok"}
	svc := newTestService(verses, &fakeCache{}, gen, &fakeBlobs{})

	svc.ExplainVerse(context.Background(), bible.ModeStudy, "KJV", "John", 3, 16)

	require.NotEmpty(t, gen.lastMessages)
	assert.Equal(t, bible.ModeStudy.SystemBehavior(), gen.lastMessages[0].Content)

	joined := ""
	for _, m := range gen.lastMessages {
		joined += m.Content + "\n"
	}
	assert.Contains(t, joined, "Full Bible Chapter from KJV:")
	assert.Contains(t, joined, "John:3:17: For God sent not his Son...")
	assert.Contains(t, joined, "Similar Verses from KJV:")
	assert.Contains(t, joined, "Romans:5:8")
	assert.Contains(t, joined, "Mode: Study Mode. Focus level: educational.")

	// The similar-verse context lookup excludes the source chapter.
	require.NotNil(t, verses.lastExclude)
	assert.Equal(t, store.ChapterRef{Book: "John", Chapter: 3}, *verses.lastExclude)
	assert.Equal(t, bible.ModeStudy.MaxSimilarVerses(), verses.lastLimit)
}

func TestExplainVerseRetriesEmptyCompletions(t *testing.T) {
	gen := &fakeGen{chatErr: llm.ErrEmptyCompletion}
	svc := newTestService(john316(), &fakeCache{}, gen, &fakeBlobs{})

	got := svc.ExplainVerse(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16)
	assert.Empty(t, got)
	assert.Equal(t, 3, gen.chatCalls, "empty completions are retried up to the attempt ceiling")
}

func TestExplainVerseDoesNotRetryTransportErrors(t *testing.T) {
	gen := &fakeGen{chatErr: errors.New("connection refused")}
	svc := newTestService(john316(), &fakeCache{}, gen, &fakeBlobs{})

	got := svc.ExplainVerse(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16)
	assert.Empty(t, got)
	assert.Equal(t, 1, gen.chatCalls)
}

func TestCacheWriteFailureStillReturnsContent(t *testing.T) {
	cache := &fakeCache{failWrites: true}
	gen := &fakeGen{chatContent: "fresh content"}
	svc := newTestService(john316(), cache, gen, &fakeBlobs{})

	got := svc.ExplainVerse(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16)
	assert.Equal(t, "fresh content", got)
	assert.Greater(t, cache.writes, 0)
}

func TestChapterContextFailureDoesNotBlockGeneration(t *testing.T) {
	verses := john316()
	verses.chapterErr = errors.New("store offline")
	gen := &fakeGen{chatContent: "still answered"}
	svc := newTestService(verses, &fakeCache{}, gen, &fakeBlobs{})

	got := svc.SummarizeChapter(context.Background(), bible.ModeDevotional, "KJV", "John", 3)
	assert.Equal(t, "still answered", got)
	for _, m := range gen.lastMessages {
		assert.NotContains(t, m.Content, "Full Bible Chapter")
	}
}

func TestSummarizeChapterCacheKey(t *testing.T) {
	cache := &fakeCache{}
	gen := &fakeGen{chatContent: "A chapter about rebirth."}
	svc := newTestService(john316(), cache, gen, &fakeBlobs{})

	svc.SummarizeChapter(context.Background(), bible.ModePastoral, "KJV", "John", 3)
	_, ok := cache.entries[cacheKey("John:3:KJV", "John:Summary:Pastoral")]
	assert.True(t, ok)
}

func TestSimilarVersesCachesJSONPayload(t *testing.T) {
	verses := john316()
	cache := &fakeCache{}
	svc := newTestService(verses, cache, &fakeGen{}, &fakeBlobs{})

	first := svc.SimilarVerses(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16, false)
	require.Len(t, first, 1)
	assert.Equal(t, "Romans:5:8", first[0].VerseID)
	assert.Nil(t, verses.lastExclude)

	second := svc.SimilarVerses(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16, false)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, verses.nearestCalls, "second lookup must come from cache")
}

func TestSimilarVersesUnknownVerse(t *testing.T) {
	svc := newTestService(&fakeVerses{}, &fakeCache{}, &fakeGen{}, &fakeBlobs{})
	got := svc.SimilarVerses(context.Background(), bible.ModeDevotional, "KJV", "John", 99, 1, false)
	assert.Nil(t, got)
}

func TestSimilarVersesWithoutEmbedding(t *testing.T) {
	verses := john316()
	v := verses.verses["John:3:16:KJV"]
	v.Vector = nil
	verses.verses["John:3:16:KJV"] = v
	svc := newTestService(verses, &fakeCache{}, &fakeGen{}, &fakeBlobs{})

	got := svc.SimilarVerses(context.Background(), bible.ModeDevotional, "KJV", "John", 3, 16, false)
	assert.Nil(t, got)
	assert.Zero(t, verses.nearestCalls)
}

func TestTranslateVerse(t *testing.T) {
	cache := &fakeCache{}
	gen := &fakeGen{chatContent: "For God loved the world so much..."}
	svc := newTestService(john316(), cache, gen, &fakeBlobs{})

	got := svc.TranslateVerse(context.Background(), "KJV", "John", 3, 16)
	require.Equal(t, "For God loved the world so much...", got)

	require.Len(t, gen.lastMessages, 2)
	assert.Equal(t, bible.TranslationSystemBehavior, gen.lastMessages[0].Content)
	assert.Equal(t, "John:3:16: For God so loved the world....", gen.lastMessages[1].Content)

	_, ok := cache.entries[cacheKey("John:3:16:KJV", "John:Translation")]
	assert.True(t, ok)
}

func TestTranslateVerseNotFound(t *testing.T) {
	gen := &fakeGen{chatContent: "should not be used"}
	svc := newTestService(&fakeVerses{}, &fakeCache{}, gen, &fakeBlobs{})

	got := svc.TranslateVerse(context.Background(), "KJV", "John", 99, 1)
	assert.Empty(t, got)
	assert.Zero(t, gen.chatCalls)
}

func TestChapterImageReusesFreshBlob(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blobs := &fakeBlobs{exists: true, modified: now.Add(-10 * 24 * time.Hour)}
	gen := &fakeGen{imageData: []byte("png")}
	svc := newTestService(john316(), &fakeCache{}, gen, blobs, WithClock(func() time.Time { return now }))

	got := svc.ChapterImage(context.Background(), "KJV", "John", 3)
	assert.Equal(t, "https://cdn.test/KJV/John/3.png", got)
	assert.Zero(t, gen.imageCalls)
}

func TestChapterImageRegeneratesExpiredBlob(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blobs := &fakeBlobs{exists: true, modified: now.Add(-200 * 24 * time.Hour)}
	gen := &fakeGen{imageData: []byte("png")}
	svc := newTestService(john316(), &fakeCache{}, gen, blobs, WithClock(func() time.Time { return now }))

	got := svc.ChapterImage(context.Background(), "KJV", "John", 3)
	assert.Equal(t, "https://cdn.test/KJV/John/3.png", got)
	assert.Equal(t, 1, gen.imageCalls)
	assert.Equal(t, []byte("png"), blobs.uploads["KJV/John/3.png"])
}

func TestChapterImageKeyReplacesSpaces(t *testing.T) {
	blobs := &fakeBlobs{}
	gen := &fakeGen{imageData: []byte("png")}
	svc := newTestService(john316(), &fakeCache{}, gen, blobs)

	got := svc.ChapterImage(context.Background(), "KJV", "Song of Solomon", 3)
	assert.Equal(t, "https://cdn.test/KJV/Song_of_Solomon/3.png", got)
	_, ok := blobs.uploads["KJV/Song_of_Solomon/3.png"]
	assert.True(t, ok)
}

func TestChapterImageUsesCachedSummaryAsGrounding(t *testing.T) {
	cache := &fakeCache{entries: map[string]string{
		cacheKey("John:3:KJV", "John:Summary:Devotional"): "A chapter about rebirth.",
	}}
	gen := &fakeGen{imageData: []byte("png")}
	svc := newTestService(john316(), cache, gen, &fakeBlobs{})

	svc.ChapterImage(context.Background(), "KJV", "John", 3)
	assert.Contains(t, gen.lastPrompt, "main themes of John chapter 3")
	assert.Contains(t, gen.lastPrompt, "A chapter about rebirth.")
}

func TestChapterImageGenerationFailure(t *testing.T) {
	gen := &fakeGen{imageErr: errors.New("model overloaded")}
	svc := newTestService(john316(), &fakeCache{}, gen, &fakeBlobs{})

	got := svc.ChapterImage(context.Background(), "KJV", "John", 3)
	assert.Empty(t, got)
}

func TestModeFallback(t *testing.T) {
	assert.Equal(t, bible.ModeDevotional, bible.ParseMode("nonsense"))
	assert.Equal(t, bible.ModeStudy, bible.ParseMode(" STUDY "))
}

func TestFocusLevel(t *testing.T) {
	assert.Equal(t, "scholarly", focusLevel(bible.ModePastoral))
	assert.Equal(t, "educational", focusLevel(bible.ModeDevotional))
	assert.Equal(t, "educational", focusLevel(bible.ModeStudy))
}

func TestGetOrComputeSkipsBlankResults(t *testing.T) {
	cache := &fakeCache{}
	svc := newTestService(&fakeVerses{}, cache, &fakeGen{}, &fakeBlobs{})

	got := svc.getOrCompute(context.Background(), "id", "part", "blank content", func(ctx context.Context) (string, error) {
		return "   ", nil
	})
	assert.Empty(t, got)
	assert.Zero(t, cache.writes)
}
