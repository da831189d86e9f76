package watch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noveldigest/internal/books"
	"noveldigest/internal/scraper"
	"noveldigest/pkg/models"
)

func TestRegisterSeedsBookFromInitialScrape(t *testing.T) {
	site := &fakeSite{pages: map[string]scraper.PageInfo{
		"https://n.example/new": {
			Title:    "Fresh Book",
			Chapters: chapterRefs("https://n.example/new", 1, 2, 3),
		},
	}}
	f := newFixture(t, site, &fakeSummarizer{})

	result, err := f.runner.Register(context.Background(), "https://n.example/new")
	require.NoError(t, err)

	assert.Equal(t, "Fresh Book", result.Book.Title)
	assert.Equal(t, 3, result.Book.LastChapter)
	assert.Equal(t, 3, result.Book.TotalChapters)
	assert.Empty(t, result.SummaryError)

	// The teaser summary covers the latest chapter only.
	require.Len(t, result.InitialSummaries, 1)
	require.Len(t, result.InitialSummaries[0].Chapters, 1)
	assert.Equal(t, 3, result.InitialSummaries[0].Chapters[0].Number)

	stored, err := f.books.GetByID(result.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.LastChapter)
}

func TestRegisterDuplicateURLRejected(t *testing.T) {
	site := &fakeSite{pages: map[string]scraper.PageInfo{
		"https://n.example/new": {
			Title:    "Fresh Book",
			Chapters: chapterRefs("https://n.example/new", 1),
		},
	}}
	f := newFixture(t, site, &fakeSummarizer{})

	_, err := f.runner.Register(context.Background(), "https://n.example/new")
	require.NoError(t, err)

	_, err = f.runner.Register(context.Background(), "https://n.example/new")
	assert.ErrorIs(t, err, books.ErrDuplicate)

	all, err := f.books.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterSurvivesSummarizationFailure(t *testing.T) {
	site := &fakeSite{pages: map[string]scraper.PageInfo{
		"https://n.example/new": {
			Title:    "Fresh Book",
			Chapters: chapterRefs("https://n.example/new", 1, 2),
		},
	}}
	summ := &fakeSummarizer{failTitles: map[string]bool{"Chapter 2": true}}
	f := newFixture(t, site, summ)

	result, err := f.runner.Register(context.Background(), "https://n.example/new")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SummaryError)
	assert.Empty(t, result.InitialSummaries)

	// The book exists regardless of the summarization outcome.
	stored, err := f.books.GetByID(result.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LastChapter)
}

func TestRemoveCascadesSummariesKeepsHistory(t *testing.T) {
	f := newFixture(t, &fakeSite{}, &fakeSummarizer{})
	book := f.addBook(t, "https://n.example/b1", 3)
	other := f.addBook(t, "https://n.example/b2", 1)

	require.NoError(t, f.summaries.Append(models.Summary{
		ID: uuid.NewString(), BookID: book.ID, BookTitle: book.Title, Date: time.Now(),
	}))
	require.NoError(t, f.summaries.Append(models.Summary{
		ID: uuid.NewString(), BookID: other.ID, BookTitle: other.Title, Date: time.Now(),
	}))
	require.NoError(t, f.history.Append(models.HistoryEntry{
		ID: uuid.NewString(), BookID: book.ID, ChapterNumber: 3,
		Action: models.ActionDetected, Date: time.Now(),
	}))

	require.NoError(t, f.runner.Remove(book.ID))

	_, err := f.books.GetByID(book.ID)
	assert.ErrorIs(t, err, books.ErrNotFound)

	sums, err := f.summaries.List()
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, other.ID, sums[0].BookID)

	entries, err := f.history.ListByBook(book.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRemoveUnknownBook(t *testing.T) {
	f := newFixture(t, &fakeSite{}, &fakeSummarizer{})
	assert.ErrorIs(t, f.runner.Remove("nope"), books.ErrNotFound)
}

func TestCheckIsReadOnly(t *testing.T) {
	site := &fakeSite{pages: map[string]scraper.PageInfo{
		"https://n.example/b1": {
			Title:    "Book One",
			Chapters: chapterRefs("https://n.example/b1", 5, 6, 7),
		},
	}}
	f := newFixture(t, site, &fakeSummarizer{})
	book := f.addBook(t, "https://n.example/b1", 5)

	res, err := f.runner.Check(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, res.HasNewChapters)
	require.Len(t, res.NewChapters, 2)
	assert.Equal(t, 5, res.LastChapter)

	// Watermark untouched, lastChecked stamped, nothing summarized.
	stored, err := f.books.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.LastChapter)
	assert.False(t, stored.LastChecked.IsZero())

	sums, err := f.summaries.List()
	require.NoError(t, err)
	assert.Empty(t, sums)
	assert.Zero(t, f.summ.calls)
}
