package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
)

type stubTracker struct {
	registerResult models.RegistrationResult
	registerErr    error
	removeErr      error
	checkResult    models.ChapterCheckResult
	checkErr       error
	runResults     []models.ChapterCheckResult
	runRan         bool
}

func (s *stubTracker) Register(ctx context.Context, url string) (models.RegistrationResult, error) {
	return s.registerResult, s.registerErr
}
func (s *stubTracker) Remove(id string) error { return s.removeErr }
func (s *stubTracker) Check(ctx context.Context, id string) (models.ChapterCheckResult, error) {
	return s.checkResult, s.checkErr
}
func (s *stubTracker) CheckAll(ctx context.Context) ([]models.ChapterCheckResult, error) {
	return s.runResults, nil
}
func (s *stubTracker) RunAll(ctx context.Context) ([]models.ChapterCheckResult, bool) {
	return s.runResults, s.runRan
}

func newRouter(t *testing.T, tracker Tracker) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	col, err := storage.Open[models.Book](filepath.Join(t.TempDir(), "books.json"))
	require.NoError(t, err)
	repo := NewRepo(col)

	router := gin.New()
	NewHandler(repo, tracker).RegisterRoutes(router.Group("/api"))
	return router, repo
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddBook(t *testing.T) {
	tracker := &stubTracker{registerResult: models.RegistrationResult{
		Book: models.Book{ID: "b1", URL: "https://n.example/1", Title: "Book One"},
	}}
	router, _ := newRouter(t, tracker)

	w := do(router, http.MethodPost, "/api/books", `{"url":"https://n.example/1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"Book One"`)
}

func TestAddBookMissingURL(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{})

	w := do(router, http.MethodPost, "/api/books", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/books", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddBookDuplicate(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{registerErr: ErrDuplicate})

	w := do(router, http.MethodPost, "/api/books", `{"url":"https://n.example/1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already tracked")
}

func TestAddBookUpstreamFailureIsGeneric500(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{registerErr: assert.AnError})

	w := do(router, http.MethodPost, "/api/books", `{"url":"https://n.example/1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// No internal detail leaks to the caller.
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestRemoveBookNotFound(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{removeErr: ErrNotFound})

	w := do(router, http.MethodDelete, "/api/books/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckNotFound(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{checkErr: ErrNotFound})

	w := do(router, http.MethodGet, "/api/books/nope/check", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummarizeReturnsResultArray(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{
		runRan: true,
		runResults: []models.ChapterCheckResult{
			{BookID: "b1", HasNewChapters: true},
			{BookID: "b2"},
		},
	})

	w := do(router, http.MethodPost, "/api/summarize", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var results []models.ChapterCheckResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "b1", results[0].BookID)
	assert.True(t, results[0].HasNewChapters)
}

func TestSummarizeEmptyRegistryIsEmptyArray(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{runRan: true})

	w := do(router, http.MethodPost, "/api/summarize", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSummarizeDroppedRunConflicts(t *testing.T) {
	router, _ := newRouter(t, &stubTracker{runRan: false})

	w := do(router, http.MethodPost, "/api/summarize", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already in progress")
}

func TestListBooks(t *testing.T) {
	router, repo := newRouter(t, &stubTracker{})
	require.NoError(t, repo.Insert(models.Book{ID: "b1", URL: "https://n.example/1"}))

	w := do(router, http.MethodGet, "/api/books", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"b1"`)
}
