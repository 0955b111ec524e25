package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"readinghub/internal/auth"
	"readinghub/internal/library"
	"readinghub/internal/readinglog"
	"readinghub/internal/stats"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

func handleListItems(c *gin.Context, d *Deps) {
	items, err := library.Search(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), library.Filter{
		Query:  c.Query("q"),
		Topic:  c.Query("topic"),
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 0),
		Offset: parseInt(c.Query("offset"), 0),
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, stats.ViewAll(items))
}

func handleUpsertItem(c *gin.Context, d *Deps) {
	var req library.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid reading item")
		return
	}
	ctx := c.Request.Context()
	var it models.ReadingItem
	err := library.WithRetry(ctx, d.DB, func(tx *sqlx.Tx) error {
		var err error
		it, err = library.CreateOrUpdateDirect(ctx, tx, c.GetString(auth.CtxUserIDKey), req, d.Clock.Now())
		return err
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusCreated, stats.View(it))
}

func handlePatchItem(c *gin.Context, d *Deps) {
	var req library.ItemPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid reading item")
		return
	}
	ctx := c.Request.Context()
	var it models.ReadingItem
	err := library.WithRetry(ctx, d.DB, func(tx *sqlx.Tx) error {
		var err error
		it, err = library.UpdateByID(ctx, tx, c.GetString(auth.CtxUserIDKey), c.Param("id"), req, d.Clock.Now())
		return err
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, stats.View(it))
}

func handleDeleteItem(c *gin.Context, d *Deps) {
	ctx := c.Request.Context()
	err := database.WithTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		return library.DeleteByID(ctx, tx, c.GetString(auth.CtxUserIDKey), c.Param("id"))
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleCreateLog(c *gin.Context, d *Deps) {
	var req struct {
		Title            string `json:"title"`
		Author           string `json:"author"`
		Topic            string `json:"topic"`
		School           string `json:"school"`
		TotalPages       *int   `json:"totalPages"`
		CurrentPageAfter *int   `json:"currentPageAfter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "currentPageAfter" {
			badRequest(c, "currentPageAfter must be a whole number")
			return
		}
		badRequest(c, "Invalid reading log")
		return
	}
	if req.Title == "" || req.CurrentPageAfter == nil {
		badRequest(c, "Title and currentPageAfter are required")
		return
	}
	it, entry, err := d.Progress.Record(c.Request.Context(), c.GetString(auth.CtxUserIDKey), library.ProgressInput{
		Title:          req.Title,
		Author:         req.Author,
		Topic:          req.Topic,
		School:         req.School,
		TotalPages:     req.TotalPages,
		NewCurrentPage: *req.CurrentPageAfter,
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": stats.View(it), "log": entry})
}

func handleListLogs(c *gin.Context, d *Deps) {
	from, to := c.Query("from"), c.Query("to")
	if date := c.Query("date"); date != "" {
		from, to = date, date
	}
	for _, v := range []string{from, to} {
		if v != "" && !validDay(v) {
			badRequest(c, "Dates must be formatted as YYYY-MM-DD")
			return
		}
	}
	logs, err := readinglog.ListForUser(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), from, to)
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
