package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("user:1"))
	assert.True(t, rl.Allow("user:1"))
	assert.False(t, rl.Allow("user:1"))

	// other callers have their own bucket
	assert.True(t, rl.Allow("user:2"))
}

func TestRateLimiterHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(7))
		c.Next()
	})
	router.Use(rl.Handler())
	router.POST("/claim", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/claim", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/claim", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiterCleanupEvictsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	assert.Equal(t, 1000, rl.Len())

	clock = clock.Add(5 * time.Minute)
	rl.Allow("user:1")

	clock = clock.Add(6 * time.Minute)
	assert.Equal(t, 1000, rl.Cleanup(10*time.Minute))
	assert.Equal(t, 1, rl.Len(), "recently seen callers keep their bucket")

	clock = clock.Add(10 * time.Minute)
	assert.Equal(t, 1, rl.Cleanup(10*time.Minute))
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiterStartCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl.StartCleanup(ctx, 10*time.Millisecond, time.Nanosecond)

	assert.Eventually(t, func() bool {
		return rl.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
