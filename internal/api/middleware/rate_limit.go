package middleware

import (
	"net/http"
	"sync"
	"time"

	"nutriplan-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 簡單的令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   map[string]*bucket
	limit    int
	window   time.Duration
	lastSeen map[string]time.Time
}

type bucket struct {
	tokens   int
	lastFill time.Time
}

// NewRateLimiter 創建限流器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		tokens:   make(map[string]*bucket),
		limit:    limit,
		window:   window,
		lastSeen: make(map[string]time.Time),
	}

	// 定期清理過期記錄
	go rl.cleanup()

	return rl
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.lastSeen[key] = now

	b, exists := rl.tokens[key]
	if !exists {
		rl.tokens[key] = &bucket{
			tokens:   rl.limit - 1,
			lastFill: now,
		}
		return true
	}

	// 根據經過的時間補充令牌
	elapsed := now.Sub(b.lastFill)
	refill := int(float64(rl.limit) * (elapsed.Seconds() / rl.window.Seconds()))
	if refill > 0 {
		b.tokens = min(b.tokens+refill, rl.limit)
		b.lastFill = now
	}

	if b.tokens <= 0 {
		return false
	}

	b.tokens--
	return true
}

// cleanup 清理長時間未使用的記錄
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-30 * time.Minute)
		for key, seen := range rl.lastSeen {
			if seen.Before(cutoff) {
				delete(rl.lastSeen, key)
				delete(rl.tokens, key)
			}
		}
		rl.mu.Unlock()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RateLimit 基於客戶端 IP 的限流中間件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			common.LogWarn("請求被限流",
				zap.String("ip", key),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
				"code":  common.ErrCodeTooManyRequests,
			})
			return
		}
		c.Next()
	}
}
