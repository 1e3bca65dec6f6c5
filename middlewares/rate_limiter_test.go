package middlewares

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupLimitedRouter(limit int, handlerDelay time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(limit, 1).RateLimit())
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(handlerDelay)
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimitHandlersRunConcurrently(t *testing.T) {
	router := setupLimitedRouter(50, 200*time.Millisecond)

	start := time.Now()
	var wg sync.WaitGroup
	codes := make([]int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest("GET", "/slow", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	// Four 200ms handlers in parallel finish near 200ms; a limiter that
	// holds its lock across the handler takes ~800ms.
	assert.Less(t, elapsed, 600*time.Millisecond,
		"requests behind the rate limiter must not serialize")
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	router := setupLimitedRouter(3, 0)

	var ok, rejected int
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("GET", "/slow", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			rejected++
		}
	}

	assert.Equal(t, 3, ok)
	assert.Equal(t, 2, rejected)
}
