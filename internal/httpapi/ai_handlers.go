package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func handleSearchBook(c *gin.Context, d *Deps) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		badRequest(c, "Query is required")
		return
	}
	res, err := d.AI.SearchBooks(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func handleReadingPlan(c *gin.Context, d *Deps) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		badRequest(c, "Topic is required")
		return
	}
	res, err := d.AI.ReadingPlan(c.Request.Context(), req.Topic)
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func handleAdminNotify(c *gin.Context, d *Deps) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message required")
		return
	}
	if d.Notify == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications are not running"})
		return
	}
	sent := d.Notify.Broadcast(req.Message)
	c.JSON(http.StatusOK, gin.H{"ok": true, "delivered": sent})
}
