package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"noveldigest/internal/diff"
	"noveldigest/internal/events"
	"noveldigest/internal/logger"
	"noveldigest/pkg/models"
)

// DigestBookID marks the combined daily summary record. Digest summaries
// belong to no book, so book removal never cascades onto them; retention
// cleanup ages them out.
const DigestBookID = "digest"

// Digest runs the daily cross-book pass: scrape every book, record fresh
// detections, then summarize everything still pending (including chapters
// whose summarization failed on earlier runs) into one combined Summary.
// Shares the run guard with RunAll; a digest invoked during another pass
// is dropped.
func (r *Runner) Digest(ctx context.Context) (*models.Summary, bool) {
	if !r.begin() {
		r.log.Info("digest skipped, a run is already in progress")
		return nil, false
	}
	defer r.end()

	all, err := r.books.List()
	if err != nil {
		r.log.Error("list books", logger.Error(err))
		return nil, true
	}

	r.log.Info("digest pass started", logger.Int("books", len(all)))

	var sections []string
	var covered []models.ChapterRef

	for _, book := range all {
		if err := r.bookPace.Wait(ctx); err != nil {
			r.log.Warn("digest interrupted", logger.Error(err))
			break
		}
		section, refs := r.digestBook(ctx, book)
		if section != "" {
			sections = append(sections, section)
			covered = append(covered, refs...)
		}
	}

	if len(sections) == 0 {
		r.log.Info("digest pass finished, nothing to summarize")
		return nil, true
	}

	text := r.combine(ctx, sections)
	s := models.Summary{
		ID:          uuid.NewString(),
		BookID:      DigestBookID,
		BookTitle:   "Daily Digest",
		Chapters:    covered,
		SummaryText: text,
		Date:        time.Now(),
	}
	if err := r.summaries.Append(s); err != nil {
		r.log.Error("store digest summary", logger.Error(err))
		return nil, true
	}

	r.log.Info("digest pass finished",
		logger.Int("books", len(sections)),
		logger.Int("chapters", len(covered)))
	return &s, true
}

// digestBook scrapes one book, records fresh detections, advances the
// watermark, then retries every chapter still lacking a summarized entry.
// Each attempt is audited with a processed entry; after
// maxSummarizeAttempts the chapter is given up on.
func (r *Runner) digestBook(ctx context.Context, book models.Book) (string, []models.ChapterRef) {
	info, err := r.scrape(ctx, book.URL)
	if err != nil {
		r.log.Warn("digest scrape failed",
			logger.String("book", book.ID),
			logger.String("url", book.URL),
			logger.Error(err))
		return "", nil
	}

	res := diff.Chapters(book.LastChapter, info.Chapters)
	for _, ch := range res.NewChapters {
		r.recordHistory(book.ID, ch, models.ActionDetected)
		r.publish(events.Event{
			Type:      events.TypeChapterDetected,
			BookID:    book.ID,
			BookTitle: book.Title,
			Chapter:   ch.Number,
		})
	}

	pending, err := r.history.Pending(book.ID, maxSummarizeAttempts)
	if err != nil {
		r.log.Error("load pending chapters",
			logger.String("book", book.ID),
			logger.Error(err))
		return "", nil
	}

	var lines []string
	var done []models.ChapterRef
	for i, ch := range pending {
		if i > 0 {
			if err := r.chapterPace.Wait(ctx); err != nil {
				break
			}
		}
		r.recordHistory(book.ID, ch, models.ActionProcessed)
		if line, ok := r.summarizeChapter(ctx, book, ch); ok {
			lines = append(lines, line)
			done = append(done, ch)
		}
	}

	// Watermark advances once per book, after its chapters were handled.
	// Un-summarized chapters stay recoverable through their detected
	// history entries, not through the watermark.
	if err := r.books.UpdateWatermark(book.ID, res.MaxChapter, len(info.Chapters)); err != nil {
		r.log.Warn("watermark update failed",
			logger.String("book", book.ID),
			logger.Error(err))
	}

	if len(lines) == 0 {
		return "", nil
	}
	return fmt.Sprintf("%s:\n%s", book.Title, strings.Join(lines, "\n")), done
}

func (r *Runner) combine(ctx context.Context, sections []string) string {
	if r.summarizer.Enabled() {
		if text, err := r.summarizer.CombineDigest(ctx, sections); err == nil {
			return text
		} else {
			r.log.Warn("digest narrative generation failed, using raw sections",
				logger.Error(err))
		}
	}
	return strings.Join(sections, "\n\n")
}
