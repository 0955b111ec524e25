package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"readinghub/internal/auth"
	"readinghub/internal/library"
	"readinghub/internal/user"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

type publicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func authResponse(c *gin.Context, d *Deps, status int, u models.User) {
	token, err := auth.SignJWT(d.JWTSecret, u.ID, u.Email, d.TokenTTL)
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  publicUser{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

func handleRegister(c *gin.Context, d *Deps) {
	var req user.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password required")
		return
	}
	u, err := user.CreateUser(c.Request.Context(), d.DB, req, d.Clock.Now())
	if err != nil {
		writeError(c, d, err)
		return
	}
	authResponse(c, d, http.StatusCreated, u)
}

func handleLogin(c *gin.Context, d *Deps) {
	var req user.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password required")
		return
	}
	u, err := user.VerifyLogin(c.Request.Context(), d.DB, req.Email, req.Password)
	if err != nil {
		writeError(c, d, err)
		return
	}
	authResponse(c, d, http.StatusOK, u)
}

type settingsResponse struct {
	models.Settings
	RegistrationDate time.Time `json:"registrationDate"`
}

func handleGetSettings(c *gin.Context, d *Deps) {
	u, err := user.GetByID(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse{Settings: u.Settings, RegistrationDate: u.CreatedAt})
}

func handleUpdateSettings(c *gin.Context, d *Deps) {
	var req user.SettingsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid settings")
		return
	}
	s, err := user.UpdateSettings(c.Request.Context(), d.DB, c.GetString(auth.CtxUserIDKey), req, d.Clock.Now())
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func handleStreakPing(c *gin.Context, d *Deps) {
	res, err := d.Streak.Ping(c.Request.Context(), c.GetString(auth.CtxUserIDKey))
	if err != nil {
		writeError(c, d, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleDeleteAccount removes the user and everything they own in one
// transaction.
func handleDeleteAccount(c *gin.Context, d *Deps) {
	ctx := c.Request.Context()
	userID := c.GetString(auth.CtxUserIDKey)
	err := database.WithTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		if err := library.DeleteAllForUser(ctx, tx, userID); err != nil {
			return err
		}
		return user.Delete(ctx, tx, userID)
	})
	if err != nil {
		writeError(c, d, err)
		return
	}
	d.Log.Infow("account deleted", "user", userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
