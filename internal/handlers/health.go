package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// @Summary      Liveness and database check
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Failure      500  {object}  healthResponse
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	now := time.Now().UTC()
	if err := h.services.CheckDatabase(c.Request.Context()); err != nil {
		h.log.Errorw("health_database_unreachable", "err", err)
		c.JSON(http.StatusInternalServerError, healthResponse{Status: "ERROR", Database: "disconnected", Timestamp: now})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "OK", Database: "connected", Timestamp: now})
}
