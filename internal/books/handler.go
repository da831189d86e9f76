package books

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"noveldigest/pkg/models"
)

// Tracker is the pipeline surface the handler needs: registration and
// checks go through the reconciliation machinery, not straight to the repo.
type Tracker interface {
	Register(ctx context.Context, url string) (models.RegistrationResult, error)
	Remove(id string) error
	Check(ctx context.Context, id string) (models.ChapterCheckResult, error)
	CheckAll(ctx context.Context) ([]models.ChapterCheckResult, error)
	RunAll(ctx context.Context) ([]models.ChapterCheckResult, bool)
}

type Handler struct {
	Repo    *Repo
	Tracker Tracker
}

func NewHandler(repo *Repo, tracker Tracker) *Handler {
	return &Handler{Repo: repo, Tracker: tracker}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", h.list)
	rg.POST("/books", h.add)
	rg.GET("/books/:id", h.getByID)
	rg.DELETE("/books/:id", h.remove)
	rg.GET("/books/:id/check", h.check)
	rg.POST("/check-all", h.checkAll)
	rg.POST("/summarize", h.summarize)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

type addReq struct {
	URL string `json:"url"`
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url required"})
		return
	}

	result, err := h.Tracker.Register(c.Request.Context(), url)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url already tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) getByID(c *gin.Context) {
	book, err := h.Repo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Tracker.Remove(c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (h *Handler) check(c *gin.Context) {
	result, err := h.Tracker.Check(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) checkAll(c *gin.Context) {
	results, err := h.Tracker.CheckAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check failed"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// summarize triggers a full reconciliation pass and returns the per-book
// results. A pass already in flight drops this request with a 409; the
// success shape stays a bare array, same as check-all.
func (h *Handler) summarize(c *gin.Context) {
	results, ran := h.Tracker.RunAll(c.Request.Context())
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}
	if results == nil {
		results = []models.ChapterCheckResult{}
	}
	c.JSON(http.StatusOK, results)
}
