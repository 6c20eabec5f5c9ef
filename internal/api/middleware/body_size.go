package middleware

import (
	"net/http"

	"nutriplan-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// BodySizeLimit 限制請求體大小的中間件
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()

		// 檢查是否因為請求體過大而出錯
		for _, err := range c.Errors {
			if err.Error() == "http: request body too large" {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"error": "Request body too large",
					"code":  common.ErrCodeInvalidRequest,
				})
				return
			}
		}
	}
}
