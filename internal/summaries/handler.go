package summaries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"noveldigest/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.list)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	views := make([]models.SummaryView, 0, len(items))
	for _, s := range items {
		views = append(views, s.View())
	}
	c.JSON(http.StatusOK, views)
}
