package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/scripturai/scriptura/internal/bible"
)

const githubUserAgent = "scripturai"

// FileRef is one entry of a GitHub repository contents listing.
type FileRef struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
}

// GitHubSource lists and downloads Bible book JSON files from a GitHub
// repository, such as aruljohn/Bible-kjv.
type GitHubSource struct {
	client  *http.Client
	repo    string
	apiBase string
}

func NewGitHubSource(repo string) *GitHubSource {
	return &GitHubSource{
		client:  &http.Client{Timeout: 60 * time.Second},
		repo:    repo,
		apiBase: "https://api.github.com",
	}
}

func (g *GitHubSource) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", githubUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, v)
}

// ListBookFiles returns the repository's JSON book files, excluding the names
// given. The index file Books.json is the usual exclusion.
func (g *GitHubSource) ListBookFiles(ctx context.Context, exclude ...string) ([]FileRef, error) {
	var all []FileRef
	url := fmt.Sprintf("%s/repos/%s/contents", g.apiBase, g.repo)
	if err := g.getJSON(ctx, url, &all); err != nil {
		return nil, fmt.Errorf("fetching file list for %s: %w", g.repo, err)
	}

	files := make([]FileRef, 0, len(all))
	for _, f := range all {
		if !strings.EqualFold(path.Ext(f.Name), ".json") {
			continue
		}
		excluded := false
		for _, name := range exclude {
			if strings.EqualFold(f.Name, name) {
				excluded = true
				break
			}
		}
		if !excluded {
			files = append(files, f)
		}
	}
	return files, nil
}

// bookFile mirrors the JSON layout of aruljohn/Bible-kjv book files: chapter
// and verse numbers are strings.
type bookFile struct {
	Book     string `json:"book"`
	Chapters []struct {
		Chapter string `json:"chapter"`
		Verses  []struct {
			Verse string `json:"verse"`
			Text  string `json:"text"`
		} `json:"verses"`
	} `json:"chapters"`
}

// LoadBook downloads one book file and flattens it into verse records tagged
// with the given version.
func (g *GitHubSource) LoadBook(ctx context.Context, file FileRef, version string) ([]bible.VerseRecord, error) {
	if file.DownloadURL == "" {
		return nil, fmt.Errorf("book file %q has no download URL", file.Name)
	}

	var book bookFile
	if err := g.getJSON(ctx, file.DownloadURL, &book); err != nil {
		return nil, fmt.Errorf("loading %s: %w", file.Name, err)
	}
	if book.Book == "" || len(book.Chapters) == 0 {
		return nil, fmt.Errorf("parsing %s: empty book", file.Name)
	}

	var verses []bible.VerseRecord
	for _, chapter := range book.Chapters {
		chapterNum, err := strconv.Atoi(chapter.Chapter)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: bad chapter %q", file.Name, chapter.Chapter)
		}
		for _, raw := range chapter.Verses {
			verseNum, err := strconv.Atoi(raw.Verse)
			if err != nil || strings.TrimSpace(raw.Text) == "" {
				return nil, fmt.Errorf("parsing %s: bad verse data in chapter %d", file.Name, chapterNum)
			}
			verses = append(verses, bible.VerseRecord{
				ID:      bible.DocumentID(book.Book, chapterNum, verseNum, version),
				VerseID: bible.CrossVersionID(book.Book, chapterNum, verseNum),
				Version: version,
				Book:    book.Book,
				Chapter: chapterNum,
				Verse:   verseNum,
				Text:    strings.TrimSpace(raw.Text),
			})
		}
	}
	if len(verses) == 0 {
		return nil, fmt.Errorf("parsing %s: no verses found", file.Name)
	}
	return verses, nil
}
