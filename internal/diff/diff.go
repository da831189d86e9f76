// Package diff computes which scraped chapters are new relative to a book's
// watermark. Pure functions only; all I/O lives with the callers.
package diff

import (
	"sort"

	"noveldigest/pkg/models"
)

// Result is the outcome of diffing one scrape against a watermark.
type Result struct {
	// NewChapters holds every scraped chapter with number > watermark,
	// sorted ascending. Duplicate numbers stay distinct references,
	// ordered by discovery.
	NewChapters []models.ChapterRef

	// MaxChapter is the highest chapter number seen this scrape, or the
	// prior watermark on an empty scrape. Never below the watermark.
	MaxChapter int
}

// Chapters diffs a freshly scraped chapter list against the watermark.
// Input order carries no meaning and is not assumed sorted. Chapters at or
// below the watermark are silently excluded: a re-scrape of an unchanged
// page is not an error.
func Chapters(watermark int, chapters []models.ChapterRef) Result {
	sorted := make([]models.ChapterRef, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	res := Result{
		NewChapters: []models.ChapterRef{},
		MaxChapter:  watermark,
	}
	for _, ch := range sorted {
		if ch.Number > res.MaxChapter {
			res.MaxChapter = ch.Number
		}
		if ch.Number > watermark {
			res.NewChapters = append(res.NewChapters, ch)
		}
	}
	return res
}
