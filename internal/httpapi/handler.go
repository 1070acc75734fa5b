// Package httpapi exposes the Bible content endpoints over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/pkg/log"
)

// Content is the generated-content surface served by the text endpoints.
// Every method returns the content or an empty string, never an error.
type Content interface {
	ExplainVerse(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int) string
	SummarizeChapter(ctx context.Context, mode bible.Mode, version, book string, chapter int) string
	TranslateVerse(ctx context.Context, version, book string, chapter, verse int) string
	SimilarVerses(ctx context.Context, mode bible.Mode, version, book string, chapter, verse int, excludeChapter bool) []bible.SimilarVerse
	ChapterImage(ctx context.Context, version, book string, chapter int) string
}

// Verses is the verse lookup surface served by the JSON endpoints.
type Verses interface {
	GetChapter(ctx context.Context, version, book string, chapter int) ([]bible.VerseRecord, error)
	GetVerseVersions(ctx context.Context, book string, chapter, verse int, excludeVersion string) ([]bible.VerseRecord, error)
}

type Handler struct {
	content Content
	verses  Verses
}

func NewHandler(content Content, verses Verses) *Handler {
	return &Handler{content: content, verses: verses}
}

// Routes builds the router. Text endpoints answer 200 with an empty body on
// internal failure; JSON endpoints answer 404 for missing chapters and 500 on
// unexpected errors.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/bible/{version}/{book}/{chapter}", func(r chi.Router) {
		r.Get("/", h.fetchChapter)
		r.Get("/image", h.chapterImage)
		r.Get("/summarize/{mode}", h.summarizeChapter)
		r.Route("/{verse}", func(r chi.Router) {
			r.Get("/versions", h.verseVersions)
			r.Get("/translate", h.translateVerse)
			r.Get("/explain/{mode}", h.explainVerse)
			r.Get("/similar/{mode}", h.similarVerses)
		})
	})
	r.Get("/api/books", h.listBooks)
	return r
}

// routeRef is the parsed common route prefix.
type routeRef struct {
	version string
	book    string
	chapter int
	verse   int
	mode    bible.Mode
}

func parseRef(r *http.Request) (routeRef, bool) {
	ref := routeRef{
		version: chi.URLParam(r, "version"),
		book:    bible.NormalizeBookName(chi.URLParam(r, "book")),
		mode:    bible.ParseMode(chi.URLParam(r, "mode")),
	}

	var err error
	ref.chapter, err = strconv.Atoi(chi.URLParam(r, "chapter"))
	if err != nil || ref.chapter < 1 {
		return ref, false
	}
	if raw := chi.URLParam(r, "verse"); raw != "" {
		ref.verse, err = strconv.Atoi(raw)
		if err != nil || ref.verse < 1 {
			return ref, false
		}
	}
	return ref, true
}

func writeText(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if content != "" {
		w.Write([]byte(content))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %v", err)
	}
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": message})
}

func (h *Handler) fetchChapter(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching the chapter. Please try again later.")
		return
	}
	verses, err := h.verses.GetChapter(r.Context(), ref.version, ref.book, ref.chapter)
	if err != nil {
		log.Error("Fetching chapter %s %d (%s) failed: %v", ref.book, ref.chapter, ref.version, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Please try again later."})
		return
	}
	if len(verses) == 0 {
		notFound(w, "We are having trouble fetching the chapter. Please try again later.")
		return
	}
	writeJSON(w, http.StatusOK, verses)
}

func (h *Handler) verseVersions(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching the verse. Please try again later.")
		return
	}
	versions, err := h.verses.GetVerseVersions(r.Context(), ref.book, ref.chapter, ref.verse, ref.version)
	if err != nil {
		log.Error("Fetching versions of %s:%d:%d failed: %v", ref.book, ref.chapter, ref.verse, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Please try again later."})
		return
	}
	if versions == nil {
		versions = []bible.VerseRecord{}
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) explainVerse(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching an explanation. Please try again later.")
		return
	}
	writeText(w, h.content.ExplainVerse(r.Context(), ref.mode, ref.version, ref.book, ref.chapter, ref.verse))
}

func (h *Handler) summarizeChapter(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching a summary. Please try again later.")
		return
	}
	writeText(w, h.content.SummarizeChapter(r.Context(), ref.mode, ref.version, ref.book, ref.chapter))
}

func (h *Handler) translateVerse(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching a translation. Please try again later.")
		return
	}
	writeText(w, h.content.TranslateVerse(r.Context(), ref.version, ref.book, ref.chapter, ref.verse))
}

func (h *Handler) similarVerses(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching similar verses. Please try again later.")
		return
	}
	similar := h.content.SimilarVerses(r.Context(), ref.mode, ref.version, ref.book, ref.chapter, ref.verse, false)
	if similar == nil {
		similar = []bible.SimilarVerse{}
	}
	writeJSON(w, http.StatusOK, similar)
}

func (h *Handler) chapterImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseRef(r)
	if !ok {
		notFound(w, "We are having trouble fetching the chapter image. Please try again later.")
		return
	}
	writeText(w, h.content.ChapterImage(r.Context(), ref.version, ref.book, ref.chapter))
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bible.Books())
}
