package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSignAndParse(t *testing.T) {
	tok, err := SignJWT(secret, "u1", "a@b.co", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@b.co", claims.Email)

	_, err = ParseJWT([]byte("other"), tok)
	assert.Error(t, err)

	expired, err := SignJWT(secret, "u1", "a@b.co", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(secret, expired)
	assert.Error(t, err)
}

func TestRequireJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireJWT(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})

	tok, err := SignJWT(secret, "u42", "x@y.z", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Token abc", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + tok, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, tc.header)
		if tc.code == http.StatusOK {
			assert.Equal(t, "u42", w.Body.String())
		}
	}
}
