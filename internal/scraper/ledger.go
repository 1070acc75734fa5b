// Package scraper ingests Bible source data and backfills verse embeddings
// in resumable batches.
package scraper

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/pkg/log"
)

const (
	processedFile = "processed_books.json"
	progressFile  = "batch_progress.json"
	failedFile    = "failed_translations.json"
)

// FailedItem is one verse whose translation exhausted its retries. It keeps
// the original text so a later embedding-only pass can still process it.
type FailedItem struct {
	Verse     bible.VerseRecord `json:"verse"`
	Timestamp time.Time         `json:"timestamp"`
	Reason    string            `json:"reason"`
}

// Ledger is the scraper's durable progress state: the completed-books list,
// the per-book batch offset map and the failed-translation list. Each lives
// in its own JSON file under dir, fully rewritten on every mutation. A single
// mutex serializes every read-modify-write cycle. Corrupt or missing files
// read as empty state so a scrape can always proceed.
type Ledger struct {
	mu  sync.Mutex // held across every read-modify-write cycle
	dir string
	now func() time.Time
}

// NewLedger creates the ledger state directory if needed.
func NewLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Ledger{dir: dir, now: time.Now}, nil
}

// readJSON loads the named state file into v. Missing, empty or unreadable
// files leave v at its zero value.
func (l *Ledger) readJSON(name string, v any) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("Could not read %s, starting fresh: %v", name, err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn("Could not parse %s, starting fresh: %v", name, err)
	}
}

func (l *Ledger) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.dir, name), data, 0o644)
}

func (l *Ledger) readProcessed() []string {
	var books []string
	l.readJSON(processedFile, &books)
	return books
}

func (l *Ledger) readProgress() map[string]int {
	progress := map[string]int{}
	l.readJSON(progressFile, &progress)
	return progress
}

func (l *Ledger) readFailed() []FailedItem {
	var items []FailedItem
	l.readJSON(failedFile, &items)
	return items
}

// IsProcessed reports whether the unit completed in a prior run.
func (l *Ledger) IsProcessed(unit string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.readProcessed() {
		if b == unit {
			return true
		}
	}
	return false
}

// MarkProcessed appends the unit to the completed list.
func (l *Ledger) MarkProcessed(unit string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	books := l.readProcessed()
	for _, b := range books {
		if b == unit {
			return nil
		}
	}
	return l.writeJSON(processedFile, append(books, unit))
}

// GetResumeOffset returns the offset the next batch for the unit should start
// at: the last completed batch start plus the batch size, or 0 when the unit
// has no recorded progress.
func (l *Ledger) GetResumeOffset(unit string, batchSize int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.readProgress()[unit]
	if !ok {
		return 0
	}
	return last + batchSize
}

// RecordBatchComplete persists the start offset of the batch that just
// finished. Called after every batch so a crash loses at most one batch.
func (l *Ledger) RecordBatchComplete(unit string, batchStart int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	progress := l.readProgress()
	progress[unit] = batchStart
	return l.writeJSON(progressFile, progress)
}

// ClearUnit drops the unit's batch progress entry once the unit completes.
func (l *Ledger) ClearUnit(unit string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	progress := l.readProgress()
	if _, ok := progress[unit]; !ok {
		return nil
	}
	delete(progress, unit)
	return l.writeJSON(progressFile, progress)
}

// AppendFailed adds one verse to the failed-translation list. Errors are
// logged, never fatal, so a broken ledger write cannot stop the scrape.
func (l *Ledger) AppendFailed(verse bible.VerseRecord, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := append(l.readFailed(), FailedItem{
		Verse:     verse,
		Timestamp: l.now().UTC(),
		Reason:    reason,
	})
	if err := l.writeJSON(failedFile, items); err != nil {
		log.Error("Failed to record failed translation for %s: %v", verse.ID, err)
	}
}

// FailedItems returns a snapshot of the failed-translation list.
func (l *Ledger) FailedItems() []FailedItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readFailed()
}

// ErrNoFailedItems is returned by ReprocessFailed when the ledger is empty.
var ErrNoFailedItems = errors.New("scraper: no failed translations recorded")

// ReprocessFailed runs fn over the full failed-translation list while holding
// the ledger lock, and truncates the list only if fn returns nil. Any error
// leaves every entry intact for a future pass.
func (l *Ledger) ReprocessFailed(fn func(items []FailedItem) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.readFailed()
	if len(items) == 0 {
		return ErrNoFailedItems
	}
	if err := fn(items); err != nil {
		return err
	}
	return l.writeJSON(failedFile, []FailedItem{})
}
