package scraper

import (
	"context"
	"fmt"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/retry"
	"github.com/scripturai/scriptura/pkg/log"
)

// Source lists and loads Bible book files.
type Source interface {
	ListBookFiles(ctx context.Context, exclude ...string) ([]FileRef, error)
	LoadBook(ctx context.Context, file FileRef, version string) ([]bible.VerseRecord, error)
}

// Job runs the ingest-and-embed pass over every book of one Bible version.
// Books that fail to load or end partially failed are logged and skipped; the
// run continues so one bad book cannot stall the rest of the canon.
type Job struct {
	source   Source
	pipeline *Pipeline
	version  string
	loadTry  retry.Policy
}

func NewJob(source Source, pipeline *Pipeline, version string) *Job {
	return &Job{
		source:   source,
		pipeline: pipeline,
		version:  version,
		loadTry:  retry.Default(),
	}
}

// Run fetches the book file list, verifies it covers the whole canon, and
// processes each book in order.
func (j *Job) Run(ctx context.Context) error {
	files, err := j.source.ListBookFiles(ctx, "Books.json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no book files found")
	}
	if len(files) != bible.CanonBookCount {
		return fmt.Errorf("expected %d book files, found %d", bible.CanonBookCount, len(files))
	}

	for _, file := range files {
		var verses []bible.VerseRecord
		err := j.loadTry.Do(ctx, func() error {
			var loadErr error
			verses, loadErr = j.source.LoadBook(ctx, file, j.version)
			return loadErr
		})
		if err != nil {
			log.Error("Failed to load %s: %v", file.Name, err)
			continue
		}

		book := verses[0].Book
		outcome, err := j.pipeline.ProcessBook(ctx, book, verses)
		if err != nil {
			log.Error("Processing %s ended with outcome %s: %v", book, outcome, err)
			continue
		}
		if outcome == OutcomeCompleted {
			log.Info("Finished %s (%d verses).", book, len(verses))
		}
	}
	return nil
}
