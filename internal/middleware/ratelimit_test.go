package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/miketerry-org/kickstart-mvc/internal/middleware"
)

func limiterEngine(window time.Duration, requests int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.NewRateLimiter(window, requests).Handler())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func hit(r *gin.Engine, addr string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterRejectsBeyondCeiling(t *testing.T) {
	r := limiterEngine(time.Hour, 3)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1234"))
	}
	require.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1:1234"))
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	r := limiterEngine(time.Hour, 1)

	require.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1:1234"))

	// A different client has its own bucket.
	require.Equal(t, http.StatusOK, hit(r, "10.0.0.2:1234"))
}
