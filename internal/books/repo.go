// Package books is the book registry: the authoritative set of tracked
// books and their chapter watermarks.
package books

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
)

var (
	// ErrNotFound means the book id is not in the registry.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicate means the URL is already tracked.
	ErrDuplicate = errors.New("book url already tracked")
)

// Repo persists books in one JSON collection. All reads return snapshots;
// no live reference to stored state ever escapes.
type Repo struct {
	col *storage.Collection[models.Book]
}

func NewRepo(col *storage.Collection[models.Book]) *Repo {
	return &Repo{col: col}
}

// List returns all tracked books.
func (r *Repo) List() ([]models.Book, error) {
	return r.col.All()
}

// GetByID returns the book, or ErrNotFound.
func (r *Repo) GetByID(id string) (models.Book, error) {
	items, err := r.col.All()
	if err != nil {
		return models.Book{}, err
	}
	for _, b := range items {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, ErrNotFound
}

// Insert adds a new book, rejecting a URL that is already tracked.
func (r *Repo) Insert(book models.Book) error {
	return r.col.Update(func(items []models.Book) ([]models.Book, error) {
		for _, b := range items {
			if sameURL(b.URL, book.URL) {
				return nil, ErrDuplicate
			}
			if b.ID == book.ID {
				return nil, fmt.Errorf("id collision for %s", book.ID)
			}
		}
		return append(items, book), nil
	})
}

// Delete removes the book, or returns ErrNotFound.
func (r *Repo) Delete(id string) error {
	return r.col.Update(func(items []models.Book) ([]models.Book, error) {
		for i, b := range items {
			if b.ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

// UpdateWatermark is the only mutator of chapter state. The watermark is
// monotone: a lower lastChapter is kept at the stored value rather than
// written. lastChecked is always stamped; lastUpdated only when the
// watermark actually advanced.
func (r *Repo) UpdateWatermark(id string, lastChapter, totalChapters int) error {
	now := time.Now()
	return r.col.Update(func(items []models.Book) ([]models.Book, error) {
		for i, b := range items {
			if b.ID != id {
				continue
			}
			if lastChapter > b.LastChapter {
				items[i].LastChapter = lastChapter
				items[i].LastUpdated = now
			}
			if totalChapters > 0 {
				items[i].TotalChapters = totalChapters
			}
			items[i].LastChecked = now
			return items, nil
		}
		return nil, ErrNotFound
	})
}

// TouchChecked stamps lastChecked without touching chapter state. Used by
// read-only checks.
func (r *Repo) TouchChecked(id string) error {
	now := time.Now()
	return r.col.Update(func(items []models.Book) ([]models.Book, error) {
		for i, b := range items {
			if b.ID == id {
				items[i].LastChecked = now
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
}

func sameURL(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimRight(strings.TrimSpace(strings.ToLower(s)), "/")
	}
	return norm(a) == norm(b)
}
