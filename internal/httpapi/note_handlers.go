package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readinghub/internal/auth"
	"readinghub/internal/notes"
)

func handleListNotes(c *gin.Context, d *Deps) {
	list, err := notes.ListForUser(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func handleCreateNote(c *gin.Context, d *Deps) {
	var req notes.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Book title and note content are required")
		return
	}
	n, err := notes.Create(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), req, d.Clock.Now())
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func handleUpdateNote(c *gin.Context, d *Deps) {
	var req notes.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid note")
		return
	}
	n, err := notes.Update(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), c.Param("id"), req, d.Clock.Now())
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func handleDeleteNote(c *gin.Context, d *Deps) {
	if err := notes.Delete(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), c.Param("id")); err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
