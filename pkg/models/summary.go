package models

import "time"

// Summary is one generated summary batch: per book per reconciliation run,
// or one combined record per daily digest pass. Deleted when the owning book
// is removed, or by retention cleanup.
type Summary struct {
	ID          string       `json:"id"`
	BookID      string       `json:"bookId"`
	BookTitle   string       `json:"bookTitle"`
	Chapters    []ChapterRef `json:"chapters"`
	SummaryText string       `json:"summaryText"`
	Date        time.Time    `json:"date"`
	ImageURL    string       `json:"imageUrl,omitempty"`
}

// SummaryView is the trimmed shape served by GET /api/summary.
type SummaryView struct {
	BookTitle    string    `json:"bookTitle"`
	Summary      string    `json:"summary"`
	Date         time.Time `json:"date"`
	ChapterCount int       `json:"chapterCount"`
	ImageURL     string    `json:"imageUrl,omitempty"`
}

// View converts a stored summary into its API shape.
func (s Summary) View() SummaryView {
	return SummaryView{
		BookTitle:    s.BookTitle,
		Summary:      s.SummaryText,
		Date:         s.Date,
		ChapterCount: len(s.Chapters),
		ImageURL:     s.ImageURL,
	}
}
