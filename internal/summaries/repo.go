// Package summaries is the append-mostly store of generated summaries.
package summaries

import (
	"time"

	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
)

type Repo struct {
	col *storage.Collection[models.Summary]
}

func NewRepo(col *storage.Collection[models.Summary]) *Repo {
	return &Repo{col: col}
}

// List returns all summaries, newest first.
func (r *Repo) List() ([]models.Summary, error) {
	items, err := r.col.All()
	if err != nil {
		return nil, err
	}
	// Stored in append order; serve newest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// Append stores one summary record.
func (r *Repo) Append(s models.Summary) error {
	return r.col.Update(func(items []models.Summary) ([]models.Summary, error) {
		return append(items, s), nil
	})
}

// DeleteByBook removes every summary owned by the book and returns how
// many were removed. Called from book removal for referential cleanup.
func (r *Repo) DeleteByBook(bookID string) (int, error) {
	removed := 0
	err := r.col.Update(func(items []models.Summary) ([]models.Summary, error) {
		kept := items[:0]
		for _, s := range items {
			if s.BookID == bookID {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteOlderThan removes summaries dated before cutoff and returns the
// count removed.
func (r *Repo) DeleteOlderThan(cutoff time.Time) (int, error) {
	removed := 0
	err := r.col.Update(func(items []models.Summary) ([]models.Summary, error) {
		kept := items[:0]
		for _, s := range items {
			if s.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
