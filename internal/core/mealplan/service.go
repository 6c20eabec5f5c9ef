package mealplan

import (
	"context"
	"fmt"

	"nutriplan-ai/internal/core/ai/cache"
	"nutriplan-ai/internal/pkg/common"
)

// Service 管線對外門面
// 單一食譜編排、餐食計畫組裝、獨立驗證與快取維護都經由這裡
type Service struct {
	orchestrator *Orchestrator
	assembler    *Assembler
	store        cache.Store
}

// NewService 創建服務，依賴全部由呼叫端注入
func NewService(client GenerationClient, store cache.Store, validator *Validator, opts Options) *Service {
	orchestrator := NewOrchestrator(client, store, validator, opts)
	return &Service{
		orchestrator: orchestrator,
		assembler:    NewAssembler(orchestrator),
		store:        store,
	}
}

// GenerateRecipe 正規化請求後執行編排
func (s *Service) GenerateRecipe(ctx context.Context, req *common.RecipeRequest) (*common.OrchestrationResult, error) {
	normalized, err := NormalizeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return s.orchestrator.Orchestrate(ctx, normalized), nil
}

// GenerateRecipeLegacy 舊版參數包入口
func (s *Service) GenerateRecipeLegacy(ctx context.Context, params common.LegacySearchParams) (*common.OrchestrationResult, error) {
	normalized, err := NormalizeLegacyParams(params)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return s.orchestrator.Orchestrate(ctx, normalized), nil
}

// GenerateMealPlan 生成餐食計畫
func (s *Service) GenerateMealPlan(ctx context.Context, req *common.MealPlanRequest) *common.MealPlanResult {
	return s.assembler.GenerateMealPlan(ctx, req)
}

// RegenerateMeal 重新編排既有計畫中的單一餐別
// 以前一份食譜最主要的食材充填避免清單，引導生成不同的結果；
// feedback 併入避免清單（例如呼叫端回報不想再看到的食材）
func (s *Service) RegenerateMeal(ctx context.Context, plan *common.MealPlan, slot common.MealType, req *common.RecipeRequest, feedback []string) (*common.OrchestrationResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("meal plan is nil")
	}
	previous, ok := plan.Recipes[slot]
	if !ok {
		return nil, fmt.Errorf("meal plan has no %s slot", slot)
	}
	if req == nil {
		return nil, fmt.Errorf("slot request is nil")
	}

	seeded := req.Clone()
	seeded.MealType = slot
	seeded.AvoidIngredients = common.UnionTokens(seeded.AvoidIngredients, prominentIngredients(previous, maxAvoidFromRejected))
	seeded.AvoidIngredients = common.UnionTokens(seeded.AvoidIngredients, feedback)

	normalized, err := NormalizeRequest(seeded)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return s.orchestrator.Orchestrate(ctx, normalized), nil
}

// ValidateRecipe 獨立驗證入口，供已有食譜（如手動輸入）的呼叫端取得品質分數
func (s *Service) ValidateRecipe(recipe *common.Recipe, reqCtx *common.RecipeRequest) *common.ValidationResult {
	return s.orchestrator.Validator().ValidateRecipe(recipe, reqCtx)
}

// ClearCache 清空快取
func (s *Service) ClearCache(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}

// CacheSize 回傳快取條目數
func (s *Service) CacheSize(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.Size(ctx)
}
