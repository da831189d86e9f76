package history

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.list)
	rg.GET("/history/:bookId", h.list)
}

func (h *Handler) list(c *gin.Context) {
	var (
		items any
		err   error
	)
	if bookID := c.Param("bookId"); bookID != "" {
		items, err = h.Repo.ListByBook(bookID)
	} else {
		items, err = h.Repo.List()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
