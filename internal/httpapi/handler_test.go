package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripturai/scriptura/internal/bible"
)

type fakeContent struct {
	explanation string
	summary     string
	translation string
	similar     []bible.SimilarVerse
	imageURL    string

	lastMode    bible.Mode
	lastBook    string
	lastExclude bool
}

func (f *fakeContent) ExplainVerse(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int) string {
	f.lastMode, f.lastBook = mode, book
	return f.explanation
}

func (f *fakeContent) SummarizeChapter(ctx context.Context, mode bible.Mode, version, book string, chapter int) string {
	f.lastMode, f.lastBook = mode, book
	return f.summary
}

func (f *fakeContent) TranslateVerse(ctx context.Context, version, book string, chapter, verse int) string {
	f.lastBook = book
	return f.translation
}

func (f *fakeContent) SimilarVerses(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int, excludeChapter bool) []bible.SimilarVerse {
	f.lastMode, f.lastBook, f.lastExclude = mode, book, excludeChapter
	return f.similar
}

func (f *fakeContent) ChapterImage(ctx context.Context, version, book string, chapter int) string {
	f.lastBook = book
	return f.imageURL
}

type fakeVerses struct {
	chapter  []bible.VerseRecord
	versions []bible.VerseRecord
	err      error
}

func (f *fakeVerses) GetChapter(ctx context.Context, version, book string, chapter int) ([]bible.VerseRecord, error) {
	return f.chapter, f.err
}

func (f *fakeVerses) GetVerseVersions(ctx context.Context, book string, chapter, verse int, excludeVersion string) ([]bible.VerseRecord, error) {
	return f.versions, f.err
}

func serve(t *testing.T, content *fakeContent, verses *fakeVerses, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	NewHandler(content, verses).Routes().ServeHTTP(rec, req)
	return rec
}

func TestExplainVerseEndpoint(t *testing.T) {
	content := &fakeContent{explanation: "God's love, explained."}
	rec := serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/explain/study")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "God's love, explained.", rec.Body.String())
	assert.Equal(t, bible.ModeStudy, content.lastMode)
}

func TestExplainVerseFailureReturnsEmptyBody(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/explain/devotional")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUnknownModeFallsBackToDevotional(t *testing.T) {
	content := &fakeContent{explanation: "x"}
	serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/explain/banana")
	assert.Equal(t, bible.ModeDevotional, content.lastMode)
}

func TestBookNameIsNormalized(t *testing.T) {
	content := &fakeContent{imageURL: "https://cdn/x.png"}
	serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/song%20of%20solomon/3/image")
	assert.Equal(t, "Song of Solomon", content.lastBook)
}

func TestFetchChapter(t *testing.T) {
	verses := &fakeVerses{chapter: []bible.VerseRecord{
		{ID: "John:3:16:KJV", VerseID: "John:3:16", Text: "For God so loved the world..."},
	}}
	rec := serve(t, &fakeContent{}, verses, http.MethodGet, "/bible/KJV/John/3")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []bible.VerseRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "John:3:16:KJV", got[0].ID)
}

func TestFetchChapterNotFound(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please try again later.")
}

func TestFetchChapterStoreError(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{err: errors.New("db offline")}, http.MethodGet, "/bible/KJV/John/3")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInvalidChapterNumber(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/three")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimilarVersesEndpoint(t *testing.T) {
	content := &fakeContent{similar: []bible.SimilarVerse{{VerseID: "Romans:5:8", Text: "But God commendeth..."}}}
	rec := serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/similar/pastoral")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []bible.SimilarVerse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, bible.ModePastoral, content.lastMode)
	assert.False(t, content.lastExclude, "endpoint lookups span the whole corpus")
}

func TestSimilarVersesEmptyIsJSONArray(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/similar/devotional")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestVerseVersionsEndpoint(t *testing.T) {
	verses := &fakeVerses{versions: []bible.VerseRecord{{ID: "John:3:16:AI", Version: "AI"}}}
	rec := serve(t, &fakeContent{}, verses, http.MethodGet, "/bible/KJV/John/3/16/versions")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []bible.VerseRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "AI", got[0].Version)
}

func TestTranslateEndpoint(t *testing.T) {
	content := &fakeContent{translation: "For God loved the world so much..."}
	rec := serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/16/translate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "For God loved the world so much...", rec.Body.String())
}

func TestChapterImageEndpoint(t *testing.T) {
	content := &fakeContent{imageURL: "https://cdn.example.com/KJV/John/3.png"}
	rec := serve(t, content, &fakeVerses{}, http.MethodGet, "/bible/KJV/John/3/image")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.example.com/KJV/John/3.png", rec.Body.String())
}

func TestListBooks(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/api/books")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []bible.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, bible.CanonBookCount)
}

func TestRequestIDHeader(t *testing.T) {
	rec := serve(t, &fakeContent{}, &fakeVerses{}, http.MethodGet, "/api/books")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	NewHandler(&fakeContent{}, &fakeVerses{}).Routes().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}
