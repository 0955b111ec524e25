package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"readinghub/internal/auth"
	"readinghub/internal/clock"
	"readinghub/internal/readinglog"
	"readinghub/internal/recommend"
	"readinghub/internal/streak"
	"readinghub/internal/websocket"
)

// Broadcaster sends an operator message to every UDP subscriber.
type Broadcaster interface {
	Broadcast(message string) int
}

// Deps is everything the handlers need.
type Deps struct {
	DB        *sqlx.DB
	Clock     clock.Clock
	Log       *zap.SugaredLogger
	JWTSecret []byte
	TokenTTL  time.Duration
	Progress  *readinglog.Service
	Streak    *streak.Tracker
	AI        *recommend.Gateway
	Notify    Broadcaster
	Hub       *websocket.ProgressHub
	Admins    []string // emails allowed on /api/admin
}

func NewRouter(d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), RequestLogger(d.Log))

	if d.Hub != nil {
		r.GET("/ws", websocket.HandleWebSocket(d.Hub, d.JWTSecret))
	}

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api.POST("/auth/register", func(c *gin.Context) { handleRegister(c, d) })
	api.POST("/auth/login", func(c *gin.Context) { handleLogin(c, d) })

	authed := api.Group("/")
	authed.Use(auth.RequireJWT(d.JWTSecret))

	authed.GET("/user/settings", func(c *gin.Context) { handleGetSettings(c, d) })
	authed.PUT("/user/settings", func(c *gin.Context) { handleUpdateSettings(c, d) })
	authed.POST("/user/streak-ping", func(c *gin.Context) { handleStreakPing(c, d) })
	authed.DELETE("/user", func(c *gin.Context) { handleDeleteAccount(c, d) })

	authed.GET("/reading-items", func(c *gin.Context) { handleListItems(c, d) })
	authed.POST("/reading-items", func(c *gin.Context) { handleUpsertItem(c, d) })
	authed.PATCH("/reading-items/:id", func(c *gin.Context) { handlePatchItem(c, d) })
	authed.DELETE("/reading-items/:id", func(c *gin.Context) { handleDeleteItem(c, d) })

	authed.POST("/reading-logs", func(c *gin.Context) { handleCreateLog(c, d) })
	authed.GET("/reading-logs", func(c *gin.Context) { handleListLogs(c, d) })

	authed.GET("/reading-stats/summary", func(c *gin.Context) { handleSummary(c, d) })
	authed.GET("/reading-stats/daily", func(c *gin.Context) { handleDaily(c, d) })
	authed.GET("/reading-stats/today", func(c *gin.Context) { handleToday(c, d) })

	authed.GET("/notes", func(c *gin.Context) { handleListNotes(c, d) })
	authed.POST("/notes", func(c *gin.Context) { handleCreateNote(c, d) })
	authed.PUT("/notes/:id", func(c *gin.Context) { handleUpdateNote(c, d) })
	authed.DELETE("/notes/:id", func(c *gin.Context) { handleDeleteNote(c, d) })

	authed.POST("/ai/search-book", func(c *gin.Context) { handleSearchBook(c, d) })
	authed.POST("/ai/reading-plan", func(c *gin.Context) { handleReadingPlan(c, d) })

	admin := authed.Group("/admin")
	admin.Use(auth.RequireAdmin(d.Admins))
	admin.POST("/notify", func(c *gin.Context) { handleAdminNotify(c, d) })

	return r
}
