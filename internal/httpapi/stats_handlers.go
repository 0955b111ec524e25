package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"readinghub/internal/auth"
	"readinghub/internal/clock"
	"readinghub/internal/library"
	"readinghub/internal/readinglog"
	"readinghub/internal/stats"
	"readinghub/internal/user"
)

const maxDailyWindow = 366

func validDay(s string) bool {
	_, err := clock.ParseDay(s, time.Local)
	return err == nil
}

func handleSummary(c *gin.Context, d *Deps) {
	items, err := library.ListForUser(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, stats.Summarize(items))
}

func handleDaily(c *gin.Context, d *Deps) {
	days := parseInt(c.Query("days"), 7)
	if days < 1 || days > maxDailyWindow {
		badRequest(c, "days must be between 1 and 366")
		return
	}
	today := d.Clock.Now()
	from := clock.DayKey(clock.DateOnly(today).AddDate(0, 0, -(days - 1)))
	logs, err := readinglog.ListForUser(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), from, clock.DayKey(today))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, stats.DailyPages(logs, today, days))
}

func handleToday(c *gin.Context, d *Deps) {
	ctx := c.Request.Context()
	userID := c.GetString(auth.CtxUserIDKey)
	u, err := user.GetByID(ctx, d.DB, userID)
	if err != nil {
		writeError(c, d, err)
		return
	}
	today := d.Clock.Now()
	logs, err := readinglog.ListForDate(ctx, d.DB, userID, clock.DayKey(today))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, stats.Today(logs, today, u.Settings.DailyPageGoal))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
