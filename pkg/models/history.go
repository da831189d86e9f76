package models

import "time"

// History actions. A chapter always gets a "detected" entry when the differ
// first sees it; "summarized" follows only if summarization succeeded, and
// "processed" records a digest-pass summarization attempt.
const (
	ActionDetected   = "detected"
	ActionProcessed  = "processed"
	ActionSummarized = "summarized"
)

// HistoryEntry is one append-only audit record. Entries are never mutated
// and survive removal of their book; only retention cleanup deletes them.
type HistoryEntry struct {
	ID            string    `json:"id"`
	BookID        string    `json:"bookId"`
	ChapterNumber int       `json:"chapterNumber"`
	ChapterTitle  string    `json:"chapterTitle"`
	ChapterURL    string    `json:"chapterUrl"`
	Action        string    `json:"action"`
	Date          time.Time `json:"date"`
}
