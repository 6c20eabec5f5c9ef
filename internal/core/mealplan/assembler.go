package mealplan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nutriplan-ai/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assembler 餐食計畫組裝器：逐餐別獨立編排並彙整跨餐指標
type Assembler struct {
	orchestrator *Orchestrator
}

// NewAssembler 創建組裝器
func NewAssembler(orchestrator *Orchestrator) *Assembler {
	return &Assembler{orchestrator: orchestrator}
}

// cookingMethods 烹煮方式分類關鍵詞（多樣性評分用），依序比對
var cookingMethods = []struct {
	name     string
	keywords []string
}{
	{"bake", []string{"bake", "roast", "oven", "broil"}},
	{"fry", []string{"fry", "saute", "sauté", "sear", "stir-fry"}},
	{"boil", []string{"boil", "simmer", "steam", "poach", "blanch"}},
}

// GenerateMealPlan 生成餐食計畫
// 各餐別並行派發、互不影響；全部結束後彙整營養總和與多樣性/品質/儲藏室分數
// 至少一個餐別成功才產出 MealPlan
func (a *Assembler) GenerateMealPlan(ctx context.Context, req *common.MealPlanRequest) *common.MealPlanResult {
	result := &common.MealPlanResult{
		SlotResults:     make(map[common.MealType]*common.OrchestrationResult),
		SlotValidations: make(map[common.MealType]*common.ValidationResult),
	}

	if req == nil || len(req.Slots) == 0 {
		result.Errors = append(result.Errors, "meal plan request has no slots")
		return result
	}

	type slotOutcome struct {
		meal       common.MealType
		res        *common.OrchestrationResult
		validation *common.ValidationResult
		err        error
	}

	var wg sync.WaitGroup
	outcomes := make(chan slotOutcome, len(req.Slots))

	for meal, slotReq := range req.Slots {
		if slotReq == nil {
			continue
		}
		wg.Add(1)
		go func(meal common.MealType, slotReq *common.RecipeRequest) {
			defer wg.Done()

			merged := mergePreferences(slotReq, meal, req.Preferences)
			normalized, err := NormalizeRequest(merged)
			if err != nil {
				outcomes <- slotOutcome{meal: meal, err: err}
				return
			}

			res := a.orchestrator.Orchestrate(ctx, normalized)
			var validation *common.ValidationResult
			if res.Recipe != nil {
				validation = a.orchestrator.Validator().ValidateRecipe(res.Recipe, normalized)
			}
			outcomes <- slotOutcome{meal: meal, res: res, validation: validation}
		}(meal, slotReq)
	}

	wg.Wait()
	close(outcomes)

	recipes := make(map[common.MealType]*common.Recipe)
	attempts := make(map[common.MealType]int)
	for outcome := range outcomes {
		if outcome.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", outcome.meal, outcome.err))
			continue
		}
		result.SlotResults[outcome.meal] = outcome.res
		if outcome.validation != nil {
			result.SlotValidations[outcome.meal] = outcome.validation
		}
		attempts[outcome.meal] = outcome.res.Attempts
		if outcome.res.Success {
			recipes[outcome.meal] = outcome.res.Recipe
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", outcome.meal, strings.Join(outcome.res.Errors, "; ")))
		}
	}

	if len(recipes) == 0 {
		common.LogWarn("所有餐別皆生成失敗",
			zap.Int("slots", len(req.Slots)),
		)
		result.Success = false
		return result
	}

	plan := &common.MealPlan{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Recipes:   recipes,
		Metadata: common.PlanMetadata{
			Attempts:            attempts,
			UserGoal:            req.Preferences.UserGoal,
			DietaryRestrictions: req.Preferences.DietaryRestrictions,
			Allergies:           req.Preferences.Allergies,
		},
	}

	for _, recipe := range recipes {
		plan.TotalNutrition.Add(recipe.Nutrition)
	}
	plan.VarietyScore = varietyScore(recipes)
	plan.QualityScore = averageScore(recipes, func(r *common.Recipe) float64 { return r.CompatibilityScore })
	plan.PantryMatchScore = averageScore(recipes, func(r *common.Recipe) float64 { return r.PantryMatch })

	result.Success = true
	result.MealPlan = plan

	common.LogInfo("餐食計畫組裝完成",
		zap.String("plan_id", plan.ID),
		zap.Int("meals", len(recipes)),
		zap.Float64("variety", plan.VarietyScore),
		zap.Float64("quality", plan.QualityScore),
	)
	return result
}

// mergePreferences 以集合聯集將全域偏好併入餐別請求
func mergePreferences(slotReq *common.RecipeRequest, meal common.MealType, prefs common.MealPlanPreferences) *common.RecipeRequest {
	merged := slotReq.Clone()
	if merged.MealType == "" {
		merged.MealType = meal
	}
	merged.DietaryRestrictions = common.UnionTokens(merged.DietaryRestrictions, prefs.DietaryRestrictions)
	merged.Allergies = common.UnionTokens(merged.Allergies, prefs.Allergies)
	if merged.UserGoal == "" {
		merged.UserGoal = prefs.UserGoal
	}
	if merged.Cuisine == "" && len(prefs.PreferredCuisines) > 0 {
		merged.Cuisine = prefs.PreferredCuisines[0]
	}
	return merged
}

// varietyScore 三個子分數的未加權平均（0-100）：
// 相異菜系比、相異食材比、相異烹煮方式比
func varietyScore(recipes map[common.MealType]*common.Recipe) float64 {
	mealCount := len(recipes)
	if mealCount == 0 {
		return 0
	}

	cuisines := make(map[string]struct{})
	ingredients := make(map[string]struct{})
	methods := make(map[string]struct{})
	totalIngredients := 0

	for _, recipe := range recipes {
		if c := common.NormalizeToken(recipe.Cuisine); c != "" {
			cuisines[c] = struct{}{}
		}
		for _, ing := range recipe.Ingredients {
			ingredients[common.NormalizeToken(ing.Name)] = struct{}{}
			totalIngredients++
		}
		methods[classifyCookingMethod(recipe.Instructions)] = struct{}{}
	}

	cuisineRatio := float64(len(cuisines)) / float64(mealCount)
	ingredientRatio := 0.0
	if totalIngredients > 0 {
		ingredientRatio = float64(len(ingredients)) / float64(totalIngredients)
	}
	methodRatio := float64(len(methods)) / float64(mealCount)

	return common.ClampScore((cuisineRatio + ingredientRatio + methodRatio) / 3 * 100)
}

// classifyCookingMethod 以關鍵詞將指示分類為 bake/fry/boil/other
func classifyCookingMethod(instructions []string) string {
	text := strings.ToLower(strings.Join(instructions, " "))
	for _, method := range cookingMethods {
		for _, kw := range method.keywords {
			if strings.Contains(text, kw) {
				return method.name
			}
		}
	}
	return "other"
}

// averageScore 對成功餐別取平均
func averageScore(recipes map[common.MealType]*common.Recipe, pick func(*common.Recipe) float64) float64 {
	if len(recipes) == 0 {
		return 0
	}
	sum := 0.0
	for _, recipe := range recipes {
		sum += pick(recipe)
	}
	return common.ClampScore(sum / float64(len(recipes)))
}
