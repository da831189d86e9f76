package books

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	col, err := storage.Open[models.Book](filepath.Join(t.TempDir(), "books.json"))
	require.NoError(t, err)
	return NewRepo(col)
}

func book(id, url string, last int) models.Book {
	return models.Book{ID: id, URL: url, Title: "T " + id, LastChapter: last, DateAdded: time.Now()}
}

func TestInsertRejectsDuplicateURL(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Insert(book("b1", "https://n.example/book", 1)))

	err := r.Insert(book("b2", "https://n.example/book", 1))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Normalized comparison: trailing slash and case do not evade the check.
	err = r.Insert(book("b3", "https://N.example/Book/", 1))
	assert.ErrorIs(t, err, ErrDuplicate)

	all, err := r.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetByIDAndDelete(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Insert(book("b1", "https://n.example/1", 1)))

	got, err := r.GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, "https://n.example/1", got.URL)

	_, err = r.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete("b1"))
	assert.ErrorIs(t, r.Delete("b1"), ErrNotFound)
}

func TestUpdateWatermarkIsMonotone(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Insert(book("b1", "https://n.example/1", 5)))

	require.NoError(t, r.UpdateWatermark("b1", 9, 12))
	got, err := r.GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.LastChapter)
	assert.Equal(t, 12, got.TotalChapters)
	assert.False(t, got.LastUpdated.IsZero())
	firstUpdated := got.LastUpdated

	// A lower watermark never decreases the stored value.
	require.NoError(t, r.UpdateWatermark("b1", 3, 12))
	got, err = r.GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.LastChapter)
	assert.Equal(t, firstUpdated, got.LastUpdated)

	assert.ErrorIs(t, r.UpdateWatermark("gone", 1, 1), ErrNotFound)
}

func TestTouchCheckedLeavesChapterStateAlone(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Insert(book("b1", "https://n.example/1", 5)))

	require.NoError(t, r.TouchChecked("b1"))
	got, err := r.GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.LastChapter)
	assert.False(t, got.LastChecked.IsZero())

	assert.ErrorIs(t, r.TouchChecked("gone"), ErrNotFound)
}

func TestReadsReturnSnapshots(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Insert(book("b1", "https://n.example/1", 5)))

	got, err := r.GetByID("b1")
	require.NoError(t, err)
	got.LastChapter = 999

	again, err := r.GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.LastChapter)
}
