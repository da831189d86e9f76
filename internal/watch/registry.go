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

// Register scrapes the URL, seeds a new book from the result and persists
// it. The watermark starts at the highest discovered chapter. An initial
// summary of the latest chapter is attempted afterward; its failure is
// reported but never rolls the registration back.
func (r *Runner) Register(ctx context.Context, url string) (models.RegistrationResult, error) {
	info, err := r.scrape(ctx, url)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("initial scrape: %w", err)
	}

	res := diff.Chapters(0, info.Chapters)

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = url
	}

	now := time.Now()
	book := models.Book{
		ID:            uuid.NewString(),
		URL:           url,
		Title:         title,
		LastChapter:   res.MaxChapter,
		TotalChapters: len(info.Chapters),
		DateAdded:     now,
		LastUpdated:   now,
		LastChecked:   now,
	}

	if err := r.books.Insert(book); err != nil {
		return models.RegistrationResult{}, err
	}

	r.log.Info("book registered",
		logger.String("book", book.ID),
		logger.String("title", book.Title),
		logger.Int("chapters", book.TotalChapters))
	r.publish(events.Event{
		Type:      events.TypeBookAdded,
		BookID:    book.ID,
		BookTitle: book.Title,
	})

	result := models.RegistrationResult{Book: book}

	// Teaser summary of the most recent chapter. The book exists
	// regardless of how this goes.
	if len(res.NewChapters) > 0 {
		latest := res.NewChapters[len(res.NewChapters)-1]
		if summary, err := r.initialSummary(ctx, book, latest); err != nil {
			result.SummaryError = err.Error()
		} else {
			result.InitialSummaries = []models.Summary{summary}
		}
	}
	return result, nil
}

func (r *Runner) initialSummary(ctx context.Context, book models.Book, ch models.ChapterRef) (models.Summary, error) {
	r.recordHistory(book.ID, ch, models.ActionDetected)

	text, err := r.content.ChapterText(ctx, ch.URL)
	if err != nil {
		return models.Summary{}, err
	}
	if !r.summarizer.Enabled() {
		return models.Summary{}, fmt.Errorf("summarizer disabled")
	}

	summaryText, err := r.summarizer.SummarizeChapter(ctx, book.Title, ch.Title, text)
	if err != nil {
		return models.Summary{}, err
	}

	r.recordHistory(book.ID, ch, models.ActionSummarized)

	s := models.Summary{
		ID:          uuid.NewString(),
		BookID:      book.ID,
		BookTitle:   book.Title,
		Chapters:    []models.ChapterRef{ch},
		SummaryText: fmt.Sprintf("Chapter %d — %s: %s", ch.Number, ch.Title, summaryText),
		Date:        time.Now(),
	}
	if err := r.summaries.Append(s); err != nil {
		return models.Summary{}, err
	}
	return s, nil
}

// Remove deletes the book and cascades deletion of its summaries. History
// entries are left intact for audit.
func (r *Runner) Remove(id string) error {
	book, err := r.books.GetByID(id)
	if err != nil {
		return err
	}
	if err := r.books.Delete(id); err != nil {
		return err
	}

	removed, err := r.summaries.DeleteByBook(id)
	if err != nil {
		r.log.Error("cascade summary delete",
			logger.String("book", id),
			logger.Error(err))
	} else if removed > 0 {
		r.log.Info("cascaded summary deletion",
			logger.String("book", id),
			logger.Int("removed", removed))
	}

	r.publish(events.Event{
		Type:      events.TypeBookRemoved,
		BookID:    id,
		BookTitle: book.Title,
	})
	return nil
}

// Check performs a read-only diff for one book: it reports new chapters
// without processing them or advancing the watermark. lastChecked is still
// stamped when the scrape step is reached.
func (r *Runner) Check(ctx context.Context, id string) (models.ChapterCheckResult, error) {
	book, err := r.books.GetByID(id)
	if err != nil {
		return models.ChapterCheckResult{}, err
	}
	return r.checkBook(ctx, book), nil
}

// CheckAll runs the read-only check across every book, sequentially with
// pacing, collecting per-book results. One bad book never aborts the rest.
func (r *Runner) CheckAll(ctx context.Context) ([]models.ChapterCheckResult, error) {
	all, err := r.books.List()
	if err != nil {
		return nil, err
	}

	results := make([]models.ChapterCheckResult, 0, len(all))
	for _, book := range all {
		if err := r.bookPace.Wait(ctx); err != nil {
			break
		}
		results = append(results, r.checkBook(ctx, book))
	}
	return results, nil
}

func (r *Runner) checkBook(ctx context.Context, book models.Book) models.ChapterCheckResult {
	result := models.ChapterCheckResult{
		BookID:        book.ID,
		BookTitle:     book.Title,
		NewChapters:   []models.ChapterRef{},
		LastChapter:   book.LastChapter,
		TotalChapters: book.TotalChapters,
	}

	info, err := r.scrape(ctx, book.URL)
	if err != nil {
		r.log.Warn("check scrape failed",
			logger.String("book", book.ID),
			logger.String("url", book.URL),
			logger.Error(err))
		result.Error = err.Error()
		return result
	}

	res := diff.Chapters(book.LastChapter, info.Chapters)
	result.NewChapters = res.NewChapters
	result.HasNewChapters = len(res.NewChapters) > 0
	result.LastChapter = book.LastChapter
	result.TotalChapters = len(info.Chapters)

	if err := r.books.TouchChecked(book.ID); err != nil {
		r.log.Warn("touch lastChecked failed",
			logger.String("book", book.ID),
			logger.Error(err))
	}
	return result
}
