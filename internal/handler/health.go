package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "macro-calendar"

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and whether the event archive is attached
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	archive := "disabled"
	if h.history != nil {
		archive = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"archive": archive,
	})
}
