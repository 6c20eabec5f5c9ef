package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"nutriplan-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deduplicator 短時間內重複請求的去重器
type Deduplicator struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	window  time.Duration
	maxSize int
}

// NewDeduplicator 創建去重器
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{
		seen:    make(map[string]time.Time),
		window:  window,
		maxSize: 10000,
	}
}

// isDuplicate 檢查並記錄請求指紋
func (d *Deduplicator) isDuplicate(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()

	// 清理過期記錄
	if len(d.seen) > d.maxSize {
		for k, t := range d.seen {
			if now.Sub(t) > d.window {
				delete(d.seen, k)
			}
		}
	}

	if t, exists := d.seen[key]; exists && now.Sub(t) < d.window {
		return true
	}

	d.seen[key] = now
	return false
}

// Deduplication 去重中間件，攔截短時間內完全相同的 POST 請求
func Deduplication(dedup *Deduplicator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只對 POST 請求去重
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Failed to read request body",
				"code":  common.ErrCodeInvalidRequest,
			})
			return
		}

		// 恢復請求體供後續處理器使用
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		// 請求指紋 = 路徑 + IP + 請求體哈希
		hash := sha256.Sum256(body)
		key := c.Request.URL.Path + "|" + c.ClientIP() + "|" + hex.EncodeToString(hash[:])

		if dedup.isDuplicate(key) {
			common.LogWarn("攔截重複請求",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Duplicate request detected, please wait a moment",
				"code":  common.ErrCodeTooManyRequests,
			})
			return
		}

		c.Next()
	}
}
