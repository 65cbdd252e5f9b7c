package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"klinika/common"
)

func setupTestRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Admin") == "1" {
			common.MarkAdmin(c, 1)
		}
		c.Next()
	})
	router.POST("/submit", limiter.Handler(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func post(router *gin.Engine, ip string, admin bool) int {
	req, _ := http.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = ip + ":1234"
	if admin {
		req.Header.Set("X-Test-Admin", "1")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_PerIP(t *testing.T) {
	router := setupTestRouter(NewRateLimiter(2, nil))

	assert.Equal(t, http.StatusCreated, post(router, "10.0.0.1", false))
	assert.Equal(t, http.StatusCreated, post(router, "10.0.0.1", false))
	assert.Equal(t, http.StatusTooManyRequests, post(router, "10.0.0.1", false))

	assert.Equal(t, http.StatusCreated, post(router, "10.0.0.2", false))
	assert.Equal(t, http.StatusCreated, post(router, "10.0.0.1", true))
}

func TestRateLimiter_Prune(t *testing.T) {
	limiter := NewRateLimiter(1, nil)
	limiter.store.getLimiter("10.0.0.1")

	limiter.Prune(time.Hour)
	assert.Len(t, limiter.store.limiters, 1)

	limiter.Prune(-time.Second)
	assert.Empty(t, limiter.store.limiters)
}
