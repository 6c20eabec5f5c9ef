package mealplan

import (
	"net/http"
	"time"

	"nutriplan-ai/internal/core/ai/cache"
	corepl "nutriplan-ai/internal/core/mealplan"
	"nutriplan-ai/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜與餐食計畫 API 處理器
type Handler struct {
	service *corepl.Service
	store   cache.Store
}

// NewHandler 創建處理器
func NewHandler(service *corepl.Service, store cache.Store) *Handler {
	return &Handler{
		service: service,
		store:   store,
	}
}

// GenerateRecipe 處理單一食譜生成請求
// POST /api/v1/recipe/generate
func (h *Handler) GenerateRecipe(c *gin.Context) {
	var req common.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	requestID := c.GetHeader("X-Request-ID")
	start := time.Now()

	result, err := h.service.GenerateRecipe(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid recipe request",
			Details: err.Error(),
		})
		return
	}

	common.LogInfo("食譜生成完成",
		zap.String("request_id", requestID),
		zap.Bool("success", result.Success),
		zap.Int("attempts", result.Attempts),
		zap.Float64("quality_score", result.QualityScore),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"attempts": result.Attempts,
			"errors":   result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"recipe":        result.Recipe,
		"attempts":      result.Attempts,
		"quality_score": result.QualityScore,
	})
}

// GenerateRecipeLegacy 處理舊版參數格式的食譜生成請求
// POST /api/v1/recipe/generate/legacy
func (h *Handler) GenerateRecipeLegacy(c *gin.Context) {
	var params common.LegacySearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.GenerateRecipeLegacy(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid recipe request",
			Details: err.Error(),
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"attempts": result.Attempts,
			"errors":   result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"recipe":        result.Recipe,
		"attempts":      result.Attempts,
		"quality_score": result.QualityScore,
	})
}

// validateRequest 獨立驗證請求體
type validateRequest struct {
	Recipe  *common.Recipe        `json:"recipe" binding:"required"`
	Request *common.RecipeRequest `json:"request"`
}

// ValidateRecipe 對既有食譜執行品質驗證
// POST /api/v1/recipe/validate
func (h *Handler) ValidateRecipe(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	result := h.service.ValidateRecipe(req.Recipe, req.Request)
	c.JSON(http.StatusOK, result)
}

// GenerateMealPlan 處理餐食計畫生成請求
// POST /api/v1/mealplan/generate
func (h *Handler) GenerateMealPlan(c *gin.Context) {
	var req common.MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	if len(req.Slots) == 0 {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Meal plan request must contain at least one slot",
		})
		return
	}

	requestID := c.GetHeader("X-Request-ID")
	start := time.Now()

	result := h.service.GenerateMealPlan(c.Request.Context(), &req)

	common.LogInfo("餐食計畫生成完成",
		zap.String("request_id", requestID),
		zap.Bool("success", result.Success),
		zap.Int("slots", len(req.Slots)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// regenerateRequest 單一餐別重生請求體
type regenerateRequest struct {
	Plan     *common.MealPlan      `json:"plan" binding:"required"`
	Slot     common.MealType       `json:"slot" binding:"required"`
	Request  *common.RecipeRequest `json:"request" binding:"required"`
	Feedback []string              `json:"feedback"`
}

// RegenerateMeal 重新生成計畫中的單一餐別
// POST /api/v1/mealplan/regenerate
func (h *Handler) RegenerateMeal(c *gin.Context) {
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.RegenerateMeal(c.Request.Context(), req.Plan, req.Slot, req.Request, req.Feedback)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid regenerate request",
			Details: err.Error(),
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"attempts": result.Attempts,
			"errors":   result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"recipe":        result.Recipe,
		"attempts":      result.Attempts,
		"quality_score": result.QualityScore,
	})
}

// CacheStats 查詢快取統計
// GET /api/v1/cache/stats
func (h *Handler) CacheStats(c *gin.Context) {
	size, err := h.service.CacheSize(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "Failed to read cache stats",
			Details: err.Error(),
		})
		return
	}

	stats := gin.H{"size": size}

	// 記憶體後端額外提供命中率統計
	if provider, ok := h.store.(interface{ Stats() map[string]interface{} }); ok {
		for k, v := range provider.Stats() {
			stats[k] = v
		}
	}

	c.JSON(http.StatusOK, stats)
}

// ClearCache 清空快取
// DELETE /api/v1/cache
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "Failed to clear cache",
			Details: err.Error(),
		})
		return
	}

	common.LogInfo("快取已清空")
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
