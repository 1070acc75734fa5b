package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/scripturai/scriptura/internal/bible"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/retry"
	"github.com/scripturai/scriptura/pkg/log"
)

// VerseWriter is the write side of the verse store.
type VerseWriter interface {
	UpsertVerse(ctx context.Context, v bible.VerseRecord) error
}

// Embedder produces chat completions and embeddings.
type Embedder interface {
	CompleteChat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (string, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Outcome reports how a book run ended.
type Outcome string

const (
	OutcomeCompleted       Outcome = "Completed"
	OutcomePartiallyFailed Outcome = "PartiallyFailed"
	OutcomeSkipped         Outcome = "Skipped"
)

const defaultBatchSize = 100

// Pipeline embeds verse batches and records progress in the ledger. Batches
// run strictly in order: each batch's persisted offset gates the next, so the
// pipeline is never parallelized within a book.
type Pipeline struct {
	store  VerseWriter
	gen    Embedder
	ledger *Ledger

	batchSize  int
	translate  bool
	batchRetry retry.Policy
	verseRetry retry.Policy
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBatchSize overrides the default batch size of 100.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithTranslation enables the modern-English translation step before
// embedding.
func WithTranslation(enabled bool) PipelineOption {
	return func(p *Pipeline) { p.translate = enabled }
}

// WithBatchRetry overrides the batch-level retry policy.
func WithBatchRetry(policy retry.Policy) PipelineOption {
	return func(p *Pipeline) { p.batchRetry = policy }
}

// WithVerseRetry overrides the per-verse translation retry policy.
func WithVerseRetry(policy retry.Policy) PipelineOption {
	return func(p *Pipeline) { p.verseRetry = policy }
}

func NewPipeline(store VerseWriter, gen Embedder, ledger *Ledger, opts ...PipelineOption) *Pipeline {
	verseRetry := retry.Default()
	verseRetry.Retryable = func(err error) bool { return errors.Is(err, llm.ErrEmptyCompletion) }

	p := &Pipeline{
		store:      store,
		gen:        gen,
		ledger:     ledger,
		batchSize:  defaultBatchSize,
		batchRetry: retry.Default(),
		verseRetry: verseRetry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessBook embeds a book's verses in contiguous batches, resuming from the
// ledger offset. Any batch that exhausts its retry budget halts the book:
// later batches are not attempted and the book is not marked processed, so a
// future run re-scans it from the last good offset.
func (p *Pipeline) ProcessBook(ctx context.Context, book string, verses []bible.VerseRecord) (Outcome, error) {
	if p.ledger.IsProcessed(book) {
		log.Info("Skipping %s, already processed.", book)
		return OutcomeSkipped, nil
	}
	if len(verses) == 0 {
		return OutcomePartiallyFailed, fmt.Errorf("no verses to process for %s", book)
	}

	start := p.ledger.GetResumeOffset(book, p.batchSize)
	if start > 0 {
		log.Info("Resuming %s from offset %d.", book, start)
	}

	for i := start; i < len(verses); i += p.batchSize {
		end := i + p.batchSize
		if end > len(verses) {
			end = len(verses)
		}
		batch := verses[i:end]

		err := p.batchRetry.Do(ctx, func() error {
			return p.processBatch(ctx, batch)
		})
		if err != nil {
			log.Error("Batch starting at %d failed for %s: %v", i, book, err)
			return OutcomePartiallyFailed, fmt.Errorf("batch at offset %d for %s: %w", i, book, err)
		}

		if err := p.ledger.RecordBatchComplete(book, i); err != nil {
			return OutcomePartiallyFailed, fmt.Errorf("recording batch offset %d for %s: %w", i, book, err)
		}
		log.Info("Processed batch %d-%d of %s.", i, end, book)
	}

	if err := p.ledger.MarkProcessed(book); err != nil {
		return OutcomePartiallyFailed, fmt.Errorf("marking %s processed: %w", book, err)
	}
	if err := p.ledger.ClearUnit(book); err != nil {
		return OutcomePartiallyFailed, fmt.Errorf("clearing progress for %s: %w", book, err)
	}
	log.Info("Completed processing %s.", book)
	return OutcomeCompleted, nil
}

// processBatch optionally translates, then embeds and stores one batch. The
// batch slice is mutated in place: translated text replaces the original, and
// a verse whose translation failed has its text blanked after it is logged to
// the failure ledger.
func (p *Pipeline) processBatch(ctx context.Context, batch []bible.VerseRecord) error {
	if p.translate {
		for i := range batch {
			if !batch[i].HasText() {
				continue
			}
			translated, err := p.translateVerse(ctx, batch[i])
			if err != nil {
				log.Warn("Translation failed for %s: %v", batch[i].ID, err)
				p.ledger.AppendFailed(batch[i], err.Error())
				batch[i].Text = ""
				continue
			}
			batch[i].Text = translated
		}
	}

	return p.embedAndStore(ctx, batch)
}

// embedAndStore filters blank verses, requests one batched embedding call and
// upserts the embedded records.
func (p *Pipeline) embedAndStore(ctx context.Context, batch []bible.VerseRecord) error {
	kept := make([]int, 0, len(batch))
	texts := make([]string, 0, len(batch))
	for i := range batch {
		if !batch[i].HasText() {
			continue
		}
		kept = append(kept, i)
		texts = append(texts, batch[i].Text)
	}
	if len(kept) == 0 {
		return nil
	}

	vectors, err := p.gen.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("generating embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}

	for j, i := range kept {
		batch[i].Vector = vectors[j]
		if err := p.store.UpsertVerse(ctx, batch[i]); err != nil {
			return fmt.Errorf("upserting %s: %w", batch[i].ID, err)
		}
	}
	return nil
}

// translateVerse renders one verse in modern English under the per-verse
// retry policy. Output that does not read as English is rejected rather than
// stored.
func (p *Pipeline) translateVerse(ctx context.Context, v bible.VerseRecord) (string, error) {
	var translated string
	err := p.verseRetry.Do(ctx, func() error {
		content, err := p.gen.CompleteChat(ctx, []llm.Message{
			llm.System(bible.TranslationSystemBehavior),
			llm.User(fmt.Sprintf("%s: %s.", v.VerseID, v.Text)),
		}, nil)
		if err != nil {
			return err
		}
		translated = strings.TrimSpace(content)
		return nil
	})
	if err != nil {
		return "", err
	}

	if lang := whatlanggo.DetectLang(translated).Iso6391(); lang != "en" {
		return "", fmt.Errorf("translation detected as %q, not English", lang)
	}
	return translated, nil
}

// ProcessFailedTranslations re-embeds every verse in the failure ledger,
// holding the ledger lock for the whole pass. The ledger is truncated only
// when the entire pass succeeds; any failure leaves every entry in place.
func (p *Pipeline) ProcessFailedTranslations(ctx context.Context) error {
	return p.ledger.ReprocessFailed(func(items []FailedItem) error {
		verses := make([]bible.VerseRecord, len(items))
		for i, item := range items {
			verses[i] = item.Verse
		}
		return p.embedAndStore(ctx, verses)
	})
}
