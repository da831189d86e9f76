package summaries

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
	col, err := storage.Open[models.Summary](filepath.Join(t.TempDir(), "summaries.json"))
	require.NoError(t, err)
	return NewRepo(col)
}

func TestListNewestFirst(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Append(models.Summary{ID: "s1", BookID: "b1", Date: time.Now().Add(-time.Hour)}))
	require.NoError(t, r.Append(models.Summary{ID: "s2", BookID: "b1", Date: time.Now()}))

	items, err := r.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "s2", items[0].ID)
}

func TestDeleteByBook(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Append(models.Summary{ID: "s1", BookID: "b1"}))
	require.NoError(t, r.Append(models.Summary{ID: "s2", BookID: "b2"}))
	require.NoError(t, r.Append(models.Summary{ID: "s3", BookID: "b1"}))

	removed, err := r.DeleteByBook("b1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, err := r.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s2", items[0].ID)
}

func TestDeleteOlderThan(t *testing.T) {
	r := newRepo(t)
	now := time.Now()
	require.NoError(t, r.Append(models.Summary{ID: "old", Date: now.AddDate(0, 0, -60)}))
	require.NoError(t, r.Append(models.Summary{ID: "new", Date: now}))

	removed, err := r.DeleteOlderThan(now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err := r.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
}
