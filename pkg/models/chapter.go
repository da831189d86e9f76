package models

// ChapterRef describes one chapter discovered on a book's table-of-contents
// page. It is ephemeral: only the numeric watermark derived from it is
// persisted on the Book.
type ChapterRef struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// ChapterCheckResult is the outcome of diffing one book against a fresh
// scrape of its page.
type ChapterCheckResult struct {
	BookID         string       `json:"bookId"`
	BookTitle      string       `json:"bookTitle,omitempty"`
	HasNewChapters bool         `json:"hasNewChapters"`
	NewChapters    []ChapterRef `json:"newChapters"`
	TotalChapters  int          `json:"totalChapters"`
	LastChapter    int          `json:"lastChapter"`
	Error          string       `json:"error,omitempty"`
}
