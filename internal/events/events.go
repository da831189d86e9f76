package events

import "time"

// Event types pushed to dashboard clients.
const (
	TypeBookAdded         = "book.added"
	TypeBookRemoved       = "book.removed"
	TypeChapterDetected   = "chapter.detected"
	TypeChapterSummarized = "chapter.summarized"
)

// Event is one dashboard notification.
type Event struct {
	Type      string    `json:"type"`
	BookID    string    `json:"bookId"`
	BookTitle string    `json:"bookTitle,omitempty"`
	Chapter   int       `json:"chapter,omitempty"`
	At        time.Time `json:"at"`
}
