// Package watch runs the scheduled reconciliation over all tracked books:
// scrape, diff against the watermark, summarize what is new, persist. At
// most one pass executes at a time; a pass invoked while another is running
// is dropped, not queued.
package watch

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"noveldigest/internal/books"
	"noveldigest/internal/diff"
	"noveldigest/internal/events"
	"noveldigest/internal/history"
	"noveldigest/internal/logger"
	"noveldigest/internal/scraper"
	"noveldigest/internal/summaries"
	"noveldigest/pkg/models"
)

// Collaborators at the pipeline boundary. All of them are opaque to the
// core: the loop only sees their latency/failure contract.
type (
	Fetcher interface {
		Fetch(ctx context.Context, url string) ([]byte, error)
	}
	Extractor interface {
		Extract(pageURL string, body []byte) (scraper.PageInfo, error)
	}
	ContentExtractor interface {
		ChapterText(ctx context.Context, url string) (string, error)
	}
	Summarizer interface {
		Enabled() bool
		SummarizeChapter(ctx context.Context, bookTitle, chapterTitle, text string) (string, error)
		CombineDigest(ctx context.Context, sections []string) (string, error)
	}
	Illustrator interface {
		Enabled() bool
		Illustrate(ctx context.Context, bookTitle string, chapter int, summary string) (string, error)
	}
	Publisher interface {
		Publish(ev events.Event)
	}
)

// Run states. The guard is the central correctness guarantee: one
// reconciliation pass at a time, concurrent invocations dropped.
const (
	stateIdle int32 = iota
	stateRunning
)

// A chapter with a detected entry but no summarized one is re-attempted on
// digest passes until this many attempts have been recorded.
const maxSummarizeAttempts = 3

// Runner owns the reconciliation pipeline.
type Runner struct {
	books     *books.Repo
	summaries *summaries.Repo
	history   *history.Repo

	fetcher     Fetcher
	extractor   Extractor
	content     ContentExtractor
	summarizer  Summarizer
	illustrator Illustrator

	hub Publisher
	log logger.Logger

	bookPace    *Pacer
	chapterPace *Pacer

	state atomic.Int32
}

// NewRunner wires the pipeline. hub may be nil when no event feed is
// attached (tests).
func NewRunner(
	bookRepo *books.Repo,
	summaryRepo *summaries.Repo,
	historyRepo *history.Repo,
	fetcher Fetcher,
	extractor Extractor,
	content ContentExtractor,
	summarizer Summarizer,
	illustrator Illustrator,
	hub Publisher,
	log logger.Logger,
	bookDelay, chapterDelay time.Duration,
) *Runner {
	return &Runner{
		books:       bookRepo,
		summaries:   summaryRepo,
		history:     historyRepo,
		fetcher:     fetcher,
		extractor:   extractor,
		content:     content,
		summarizer:  summarizer,
		illustrator: illustrator,
		hub:         hub,
		log:         log,
		bookPace:    NewPacer(bookDelay),
		chapterPace: NewPacer(chapterDelay),
	}
}

// begin tries to take the run guard. It never blocks.
func (r *Runner) begin() bool {
	return r.state.CompareAndSwap(stateIdle, stateRunning)
}

// end releases the guard. Deferred by every pass so a failure mid-run
// still returns the loop to idle.
func (r *Runner) end() {
	r.state.Store(stateIdle)
}

// Running reports whether a pass is in flight.
func (r *Runner) Running() bool {
	return r.state.Load() == stateRunning
}

// RunAll performs one reconciliation pass over every tracked book,
// sequentially. The second return is false when the pass was dropped
// because another one is running.
func (r *Runner) RunAll(ctx context.Context) ([]models.ChapterCheckResult, bool) {
	if !r.begin() {
		r.log.Info("reconciliation already running, dropping invocation")
		return nil, false
	}
	defer r.end()

	all, err := r.books.List()
	if err != nil {
		r.log.Error("list books", logger.Error(err))
		return nil, true
	}

	r.log.Info("reconciliation pass started", logger.Int("books", len(all)))
	results := make([]models.ChapterCheckResult, 0, len(all))

	for _, book := range all {
		if err := r.bookPace.Wait(ctx); err != nil {
			r.log.Warn("reconciliation interrupted", logger.Error(err))
			break
		}
		results = append(results, r.processBook(ctx, book))
	}

	r.log.Info("reconciliation pass finished", logger.Int("processed", len(results)))
	return results, true
}

// processBook runs the fetch → diff → summarize → persist steps for one
// book. Errors are recorded against the result and never abort the batch.
func (r *Runner) processBook(ctx context.Context, book models.Book) models.ChapterCheckResult {
	result := models.ChapterCheckResult{
		BookID:        book.ID,
		BookTitle:     book.Title,
		NewChapters:   []models.ChapterRef{},
		LastChapter:   book.LastChapter,
		TotalChapters: book.TotalChapters,
	}

	info, err := r.scrape(ctx, book.URL)
	if err != nil {
		r.log.Warn("scrape failed",
			logger.String("book", book.ID),
			logger.String("url", book.URL),
			logger.Error(err))
		result.Error = err.Error()
		return result
	}

	res := diff.Chapters(book.LastChapter, info.Chapters)
	result.NewChapters = res.NewChapters
	result.HasNewChapters = len(res.NewChapters) > 0
	result.LastChapter = res.MaxChapter
	result.TotalChapters = len(info.Chapters)

	if len(res.NewChapters) > 0 {
		r.log.Info("new chapters detected",
			logger.String("book", book.ID),
			logger.String("title", book.Title),
			logger.Int("count", len(res.NewChapters)))
		r.summarizeBatch(ctx, book, res.NewChapters)
	}

	// Single watermark write per book, after its chapters are processed.
	// A crash before this line re-diffs the book from the old watermark on
	// the next pass; at most the in-flight chapter is reprocessed.
	if err := r.books.UpdateWatermark(book.ID, res.MaxChapter, len(info.Chapters)); err != nil {
		r.log.Warn("watermark update failed",
			logger.String("book", book.ID),
			logger.Error(err))
		result.Error = err.Error()
	}
	return result
}

func (r *Runner) scrape(ctx context.Context, url string) (scraper.PageInfo, error) {
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return scraper.PageInfo{}, err
	}
	return r.extractor.Extract(url, body)
}

// summarizeBatch handles the new chapters of one book, oldest first. Each
// chapter gets a detected history entry unconditionally; summarized only
// on success. One Summary record covers the whole batch.
func (r *Runner) summarizeBatch(ctx context.Context, book models.Book, newChapters []models.ChapterRef) {
	var sections []string

	for i, ch := range newChapters {
		if i > 0 {
			if err := r.chapterPace.Wait(ctx); err != nil {
				r.log.Warn("chapter processing interrupted", logger.Error(err))
				return
			}
		}

		r.recordHistory(book.ID, ch, models.ActionDetected)
		r.publish(events.Event{
			Type:      events.TypeChapterDetected,
			BookID:    book.ID,
			BookTitle: book.Title,
			Chapter:   ch.Number,
		})

		section, ok := r.summarizeChapter(ctx, book, ch)
		if ok {
			sections = append(sections, section)
		}
	}

	if len(sections) == 0 {
		return
	}
	r.storeSummary(ctx, book.ID, book.Title, newChapters, strings.Join(sections, "\n\n"))
}

// summarizeChapter extracts and summarizes one chapter. Failure is
// per-chapter and non-fatal: the chapter stays detected either way.
func (r *Runner) summarizeChapter(ctx context.Context, book models.Book, ch models.ChapterRef) (string, bool) {
	text, err := r.content.ChapterText(ctx, ch.URL)
	if err != nil {
		r.log.Warn("chapter content extraction failed",
			logger.String("book", book.ID),
			logger.Int("chapter", ch.Number),
			logger.String("url", ch.URL),
			logger.Error(err))
		return "", false
	}

	if !r.summarizer.Enabled() {
		r.log.Debug("summarizer disabled, skipping",
			logger.String("book", book.ID),
			logger.Int("chapter", ch.Number))
		return "", false
	}

	summary, err := r.summarizer.SummarizeChapter(ctx, book.Title, ch.Title, text)
	if err != nil {
		r.log.Warn("summarization failed",
			logger.String("book", book.ID),
			logger.Int("chapter", ch.Number),
			logger.Error(err))
		return "", false
	}

	r.recordHistory(book.ID, ch, models.ActionSummarized)
	r.publish(events.Event{
		Type:      events.TypeChapterSummarized,
		BookID:    book.ID,
		BookTitle: book.Title,
		Chapter:   ch.Number,
	})
	return fmt.Sprintf("Chapter %d — %s: %s", ch.Number, ch.Title, summary), true
}

// storeSummary persists one Summary for the batch, illustrating it when
// the illustrator is configured. Illustration failure only costs the image.
func (r *Runner) storeSummary(ctx context.Context, bookID, bookTitle string, chapters []models.ChapterRef, text string) {
	imageURL := ""
	if r.illustrator.Enabled() && len(chapters) > 0 {
		lastNum := chapters[len(chapters)-1].Number
		url, err := r.illustrator.Illustrate(ctx, bookTitle, lastNum, text)
		if err != nil {
			r.log.Warn("illustration failed",
				logger.String("book", bookID),
				logger.Error(err))
		} else {
			imageURL = url
		}
	}

	s := models.Summary{
		ID:          uuid.NewString(),
		BookID:      bookID,
		BookTitle:   bookTitle,
		Chapters:    chapters,
		SummaryText: text,
		Date:        time.Now(),
		ImageURL:    imageURL,
	}
	if err := r.summaries.Append(s); err != nil {
		r.log.Error("store summary",
			logger.String("book", bookID),
			logger.Error(err))
	}
}

func (r *Runner) recordHistory(bookID string, ch models.ChapterRef, action string) {
	entry := models.HistoryEntry{
		ID:            uuid.NewString(),
		BookID:        bookID,
		ChapterNumber: ch.Number,
		ChapterTitle:  ch.Title,
		ChapterURL:    ch.URL,
		Action:        action,
		Date:          time.Now(),
	}
	if err := r.history.Append(entry); err != nil {
		r.log.Error("append history",
			logger.String("book", bookID),
			logger.Int("chapter", ch.Number),
			logger.Error(err))
	}
}

func (r *Runner) publish(ev events.Event) {
	if r.hub != nil {
		r.hub.Publish(ev)
	}
}
