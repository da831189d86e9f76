package models

import "time"

// Book is a tracked web novel. LastChapter is the watermark: the highest
// chapter number already accounted for. It never decreases once set.
//
// Books are created on registration (after a successful initial scrape) and
// mutated only through the registry repo, so every write is all-or-nothing.
type Book struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	LastChapter   int       `json:"lastChapter"`
	TotalChapters int       `json:"totalChapters"`
	DateAdded     time.Time `json:"dateAdded"`
	LastUpdated   time.Time `json:"lastUpdated"`
	LastChecked   time.Time `json:"lastChecked"`
}

// RegistrationResult is what registering a URL yields. Registration
// succeeds or fails on the initial scrape alone: a failed initial
// summarization is reported in SummaryError but never rolls the book back.
// The Book is embedded so the response is the book object itself with the
// summary fields alongside.
type RegistrationResult struct {
	Book
	InitialSummaries []Summary `json:"initialSummaries,omitempty"`
	SummaryError     string    `json:"summaryError,omitempty"`
}
