package api

import (
	"context"
	"time"

	"nutriplan-ai/internal/api/handlers/health"
	mealplanhandler "nutriplan-ai/internal/api/handlers/mealplan"
	"nutriplan-ai/internal/api/middleware"
	"nutriplan-ai/internal/core/ai/cache"
	"nutriplan-ai/internal/core/mealplan"
	"nutriplan-ai/internal/infrastructure/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

const (
	// 請求體大小上限
	maxBodySize = 10 << 20 // 10MB

	// 餐食計畫可能要跑多個餐別的多次嘗試，逾時放寬
	mealPlanTimeout = 120 * time.Second
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, service *mealplan.Service, store cache.Store) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 配置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 速率限制
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		router.Use(middleware.RateLimit(limiter))
	}

	// 重複請求攔截
	if cfg.DedupWindow > 0 {
		dedup := middleware.NewDeduplicator(cfg.DedupWindow)
		router.Use(middleware.Deduplication(dedup))
	}

	// 健康檢查
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	handler := mealplanhandler.NewHandler(service, store)

	v1 := router.Group("/api/v1")
	{
		recipe := v1.Group("/recipe")
		{
			recipe.POST("/generate", handler.GenerateRecipe)
			recipe.POST("/generate/legacy", handler.GenerateRecipeLegacy)
			recipe.POST("/validate", handler.ValidateRecipe)
		}

		plan := v1.Group("/mealplan")
		plan.Use(requestTimeout(mealPlanTimeout))
		{
			plan.POST("/generate", handler.GenerateMealPlan)
			plan.POST("/regenerate", handler.RegenerateMeal)
		}

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", handler.CacheStats)
			cacheGroup.DELETE("", handler.ClearCache)
		}
	}

	return router
}

// requestTimeout 將帶期限的 context 注入請求
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
