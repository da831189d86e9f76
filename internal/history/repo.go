// Package history is the append-only audit log of chapter-detection and
// summarization events. Entries survive book removal; only retention
// cleanup deletes them.
package history

import (
	"time"

	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
)

type Repo struct {
	col *storage.Collection[models.HistoryEntry]
}

func NewRepo(col *storage.Collection[models.HistoryEntry]) *Repo {
	return &Repo{col: col}
}

// List returns every entry, newest first.
func (r *Repo) List() ([]models.HistoryEntry, error) {
	return r.listFiltered("")
}

// ListByBook returns the entries for one book, newest first.
func (r *Repo) ListByBook(bookID string) ([]models.HistoryEntry, error) {
	return r.listFiltered(bookID)
}

func (r *Repo) listFiltered(bookID string) ([]models.HistoryEntry, error) {
	items, err := r.col.All()
	if err != nil {
		return nil, err
	}

	out := make([]models.HistoryEntry, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if bookID == "" || items[i].BookID == bookID {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Append stores one audit entry.
func (r *Repo) Append(e models.HistoryEntry) error {
	return r.col.Update(func(items []models.HistoryEntry) ([]models.HistoryEntry, error) {
		return append(items, e), nil
	})
}

// Pending returns, per book, the chapters that were detected but never
// summarized and have fewer than maxAttempts digest-pass attempts
// recorded against them.
func (r *Repo) Pending(bookID string, maxAttempts int) ([]models.ChapterRef, error) {
	items, err := r.col.All()
	if err != nil {
		return nil, err
	}

	type state struct {
		ref        models.ChapterRef
		summarized bool
		attempts   int
	}
	byChapter := make(map[int]*state)
	var order []int

	for _, e := range items {
		if e.BookID != bookID {
			continue
		}
		st, ok := byChapter[e.ChapterNumber]
		if !ok {
			st = &state{ref: models.ChapterRef{
				Number: e.ChapterNumber,
				Title:  e.ChapterTitle,
				URL:    e.ChapterURL,
			}}
			byChapter[e.ChapterNumber] = st
			order = append(order, e.ChapterNumber)
		}
		switch e.Action {
		case models.ActionSummarized:
			st.summarized = true
		case models.ActionProcessed:
			st.attempts++
		}
	}

	var pending []models.ChapterRef
	for _, n := range order {
		st := byChapter[n]
		if !st.summarized && st.attempts < maxAttempts {
			pending = append(pending, st.ref)
		}
	}
	return pending, nil
}

// DeleteOlderThan removes entries dated before cutoff and returns the
// count removed.
func (r *Repo) DeleteOlderThan(cutoff time.Time) (int, error) {
	removed := 0
	err := r.col.Update(func(items []models.HistoryEntry) ([]models.HistoryEntry, error) {
		kept := items[:0]
		for _, e := range items {
			if e.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
