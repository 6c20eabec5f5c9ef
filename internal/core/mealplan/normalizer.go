package mealplan

import (
	"fmt"

	"nutriplan-ai/internal/pkg/common"
)

// 正規化預設值
const (
	defaultServings = 2
)

// NormalizeRequest 將請求整理為正準形式
// 純函式、無副作用；空儲藏室是合法（雖退化）的請求，僅結構性錯誤會失敗
func NormalizeRequest(req *common.RecipeRequest) (*common.RecipeRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	out := req.Clone()

	if !out.MealType.Valid() {
		return nil, fmt.Errorf("invalid meal type: %q", out.MealType)
	}
	if out.Servings < 0 {
		return nil, fmt.Errorf("invalid servings: %d", out.Servings)
	}
	if out.Servings == 0 {
		out.Servings = defaultServings
	}
	if out.MaxCookingMinutes < 0 {
		return nil, fmt.Errorf("invalid max cooking minutes: %d", out.MaxCookingMinutes)
	}

	if out.UserGoal == "" {
		out.UserGoal = common.GoalGeneralHealth
	}
	if !out.UserGoal.Valid() {
		return nil, fmt.Errorf("invalid user goal: %q", out.UserGoal)
	}
	if out.Difficulty == "" {
		out.Difficulty = common.DifficultyEasy
	}

	// 食材列表去重並統一小寫；缺漏的集合一律補為空集合
	out.AvailableIngredients = common.UniqueTokens(out.AvailableIngredients)
	out.DietaryRestrictions = common.UniqueTokens(out.DietaryRestrictions)
	out.Allergies = common.UniqueTokens(out.Allergies)
	out.AvoidIngredients = common.UniqueTokens(out.AvoidIngredients)
	out.PreferredIngredients = common.UniqueTokens(out.PreferredIngredients)

	return out, nil
}

// NormalizeLegacyParams 將舊版寬鬆參數包轉為正準請求
func NormalizeLegacyParams(params common.LegacySearchParams) (*common.RecipeRequest, error) {
	mealType := common.MealType(common.NormalizeToken(params.MealType))
	if params.MealType == "" {
		mealType = common.MealDinner
	}

	goal := common.UserGoal(common.NormalizeToken(params.Goal))
	if params.Goal == "" {
		goal = common.GoalGeneralHealth
	}

	req := &common.RecipeRequest{
		AvailableIngredients: params.Ingredients,
		MealType:             mealType,
		Servings:             params.Servings,
		MaxCookingMinutes:    params.MaxTime,
		Cuisine:              params.Cuisine,
		DietaryRestrictions:  params.DietaryRestrictions,
		Allergies:            params.Allergies,
		UserGoal:             goal,
		CalorieTarget:        params.Calories,
	}
	return NormalizeRequest(req)
}
