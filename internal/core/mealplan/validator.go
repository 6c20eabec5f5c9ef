package mealplan

import (
	"fmt"
	"strings"

	"nutriplan-ai/internal/pkg/common"
)

// DefaultQualityThreshold 預設接受門檻
const DefaultQualityThreshold = 70

// Validator 規則式食譜評分引擎
// 分數自 100 起算，逐項扣除問題嚴重度（1-10），下限 0
type Validator struct {
	threshold float64
}

// NewValidator 創建驗證器，threshold <= 0 時使用預設門檻
func NewValidator(threshold float64) *Validator {
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	return &Validator{threshold: threshold}
}

// incompatiblePairs 已知不相容的食材組合啟發式
var incompatiblePairs = [][2][]string{
	{{"fish", "salmon", "tuna", "cod", "anchovy"}, {"milk", "cheese", "cream", "yogurt"}},
	{{"lemon", "lime", "orange", "citrus", "grapefruit"}, {"milk"}},
}

// dietExclusions 飲食限制對應的排除食材清單
var dietExclusions = map[string][]string{
	"vegetarian":  {"chicken", "beef", "pork", "fish", "salmon", "tuna", "shrimp", "bacon", "ham", "turkey", "lamb", "anchovy", "gelatin"},
	"vegan":       {"chicken", "beef", "pork", "fish", "salmon", "tuna", "shrimp", "bacon", "ham", "turkey", "lamb", "anchovy", "gelatin", "milk", "cheese", "butter", "cream", "yogurt", "egg", "honey"},
	"gluten-free": {"wheat", "flour", "pasta", "bread", "barley", "rye", "couscous", "soy sauce"},
	"dairy-free":  {"milk", "cheese", "butter", "cream", "yogurt", "whey"},
}

// riskPairs 指示文字中的風險詞組合
var riskPairs = [][2]string{
	{"raw", "egg"},
	{"raw", "meat"},
	{"raw", "chicken"},
	{"alcohol", "high heat"},
}

// rawProteins 需要烹煮的生鮮蛋白質食材
var rawProteins = []string{"chicken", "beef", "pork", "fish", "salmon", "shrimp", "turkey", "egg", "meat"}

// cookingVerbs 可辨識的烹煮動詞
var cookingVerbs = []string{"bake", "boil", "fry", "grill", "roast", "cook", "simmer", "saute", "sauté", "steam", "sear", "broil", "poach", "toast", "heat"}

// vagueTerms 模糊量詞
var vagueTerms = []string{"some", "a bit", "a little", "a few", "to taste"}

// ValidateRecipe 驗證一份食譜
// reqCtx 可為 nil；提供時額外執行儲藏室覆蓋率與相容性（限制/過敏原/時限）檢查
func (v *Validator) ValidateRecipe(recipe *common.Recipe, reqCtx *common.RecipeRequest) *common.ValidationResult {
	result := &common.ValidationResult{
		Issues:      []common.ValidationIssue{},
		Suggestions: []string{},
	}

	if recipe == nil {
		result.Issues = append(result.Issues, common.ValidationIssue{
			Type: common.IssueError, Category: common.CategoryIngredients,
			Message: "recipe is missing", Severity: 10,
		})
		result.Score = 0
		return result
	}

	v.checkStructure(recipe, result)
	v.checkIngredients(recipe, reqCtx, result)
	v.checkInstructions(recipe, result)
	v.checkNutrition(recipe, reqCtx, result)
	v.checkSafety(recipe, result)
	if reqCtx != nil {
		v.checkCompatibility(recipe, reqCtx, result)
	}

	// 計分：100 逐項扣除嚴重度，下限 0
	score := 100.0
	for _, issue := range result.Issues {
		score -= float64(issue.Severity)
	}
	if score < 0 {
		score = 0
	}
	result.Score = score
	result.IsValid = score >= v.threshold && !result.HasErrors()
	result.Confidence = v.confidence(recipe, result)
	result.Suggestions = buildSuggestions(result.Issues)

	return result
}

// checkStructure 結構完整性
func (v *Validator) checkStructure(recipe *common.Recipe, result *common.ValidationResult) {
	if strings.TrimSpace(recipe.Name) == "" {
		addIssue(result, common.IssueError, common.CategoryIngredients, "recipe name is missing", 10)
	}
	if len(recipe.Ingredients) == 0 {
		addIssue(result, common.IssueError, common.CategoryIngredients, "recipe has no ingredients", 10)
	}
	if len(recipe.Instructions) == 0 {
		addIssue(result, common.IssueError, common.CategoryInstructions, "recipe has no instructions", 10)
	}
	if recipe.CookingMinutes <= 0 {
		addIssue(result, common.IssueWarning, common.CategoryInstructions, "cooking time is missing", 2)
	}
	if recipe.Servings <= 0 {
		addIssue(result, common.IssueWarning, common.CategoryIngredients, "servings is missing", 3)
	}
}

// checkIngredients 食材相容性與度量完整性
func (v *Validator) checkIngredients(recipe *common.Recipe, reqCtx *common.RecipeRequest, result *common.ValidationResult) {
	names := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		names = append(names, ing.Name)
	}

	// 已知不相容組合
	for _, pair := range incompatiblePairs {
		if matchAny(names, pair[0]) && matchAny(names, pair[1]) {
			addIssue(result, common.IssueWarning, common.CategoryIngredients,
				fmt.Sprintf("questionable ingredient pairing: %s with %s", pair[0][0], pair[1][0]), 4)
		}
	}

	// 度量缺漏
	for _, ing := range recipe.Ingredients {
		if ing.Optional {
			continue
		}
		if ing.Amount <= 0 {
			addIssue(result, common.IssueWarning, common.CategoryIngredients,
				fmt.Sprintf("ingredient %q has no amount", ing.Name), 2)
		}
		if strings.TrimSpace(ing.Unit) == "" {
			addIssue(result, common.IssueInfo, common.CategoryIngredients,
				fmt.Sprintf("ingredient %q has no unit", ing.Name), 1)
		}
	}

	// 儲藏室覆蓋率：超過一半食材不在儲藏室
	if reqCtx != nil && len(recipe.Ingredients) > 0 {
		missing := 0
		for _, ing := range recipe.Ingredients {
			if !common.ContainsToken(reqCtx.AvailableIngredients, ing.Name) {
				missing++
			}
		}
		if missing*2 > len(recipe.Ingredients) {
			addIssue(result, common.IssueWarning, common.CategoryIngredients,
				fmt.Sprintf("%d of %d ingredients are not in the pantry", missing, len(recipe.Ingredients)), 6)
		}
	}
}

// checkInstructions 步驟數量與描述品質
func (v *Validator) checkInstructions(recipe *common.Recipe, result *common.ValidationResult) {
	if len(recipe.Instructions) == 0 {
		return // 結構檢查已記為 error
	}
	if len(recipe.Instructions) < 2 {
		addIssue(result, common.IssueWarning, common.CategoryInstructions, "fewer than two instruction steps", 3)
	}

	vague := false
	short := false
	for _, step := range recipe.Instructions {
		lower := strings.ToLower(step)
		for _, term := range vagueTerms {
			if strings.Contains(lower, term) {
				vague = true
			}
		}
		if len(strings.TrimSpace(step)) < 10 {
			short = true
		}
	}
	if vague {
		addIssue(result, common.IssueInfo, common.CategoryInstructions, "instructions use vague quantities", 2)
	}
	if short {
		addIssue(result, common.IssueInfo, common.CategoryInstructions, "some instruction steps are very short", 1)
	}
}

// checkNutrition 營養合理性
func (v *Validator) checkNutrition(recipe *common.Recipe, reqCtx *common.RecipeRequest, result *common.ValidationResult) {
	n := recipe.Nutrition
	if n.Calories <= 0 {
		addIssue(result, common.IssueInfo, common.CategoryNutrition, "calorie estimate is missing", 2)
	}
	if n.Protein <= 0 && n.Carbs <= 0 && n.Fat <= 0 {
		addIssue(result, common.IssueInfo, common.CategoryNutrition, "macro breakdown is missing", 2)
	}

	// 宏量比例（以熱量占比計）
	if n.Calories > 0 {
		proteinFrac := n.Protein * 4 / n.Calories
		carbFrac := n.Carbs * 4 / n.Calories
		fatFrac := n.Fat * 9 / n.Calories
		if proteinFrac > 0.6 {
			addIssue(result, common.IssueInfo, common.CategoryNutrition, "protein fraction is unusually high", 2)
		}
		if carbFrac > 0.8 {
			addIssue(result, common.IssueWarning, common.CategoryNutrition, "carbohydrate fraction is unusually high", 3)
		}
		if fatFrac > 0.5 {
			addIssue(result, common.IssueWarning, common.CategoryNutrition, "fat fraction is unusually high", 3)
		}
	}

	// 目標感知檢查
	if reqCtx != nil {
		switch reqCtx.UserGoal {
		case common.GoalWeightLoss:
			if n.Calories > 500 {
				addIssue(result, common.IssueInfo, common.CategoryNutrition, "over 500 kcal for a weight loss goal", 2)
			}
		case common.GoalMuscleGain:
			if n.Protein > 0 && n.Protein < 20 {
				addIssue(result, common.IssueInfo, common.CategoryNutrition, "under 20g protein for a muscle gain goal", 2)
			}
		}
	}
}

// checkSafety 食安風險
func (v *Validator) checkSafety(recipe *common.Recipe, result *common.ValidationResult) {
	text := strings.ToLower(strings.Join(recipe.Instructions, " ") + " " + recipe.Description)

	for _, pair := range riskPairs {
		if strings.Contains(text, pair[0]) && strings.Contains(text, pair[1]) {
			addIssue(result, common.IssueWarning, common.CategorySafety,
				fmt.Sprintf("risky combination in instructions: %q with %q", pair[0], pair[1]), 4)
		}
	}

	// 含生鮮蛋白質但指示中無任何烹煮動詞
	hasRawProtein := false
	for _, ing := range recipe.Ingredients {
		name := common.NormalizeToken(ing.Name)
		for _, p := range rawProteins {
			if strings.Contains(name, p) {
				hasRawProtein = true
			}
		}
	}
	if hasRawProtein {
		cooked := false
		for _, verb := range cookingVerbs {
			if strings.Contains(text, verb) {
				cooked = true
				break
			}
		}
		if !cooked {
			addIssue(result, common.IssueWarning, common.CategorySafety,
				"raw protein ingredients without a recognized cooking step", 5)
		}
	}
}

// checkCompatibility 與請求脈絡的相容性（需要 context）
func (v *Validator) checkCompatibility(recipe *common.Recipe, reqCtx *common.RecipeRequest, result *common.ValidationResult) {
	// 飲食限制排除清單
	for _, restriction := range reqCtx.DietaryRestrictions {
		excluded, ok := dietExclusions[common.NormalizeToken(restriction)]
		if !ok {
			continue
		}
		for _, ing := range recipe.Ingredients {
			if common.ContainsToken(excluded, ing.Name) {
				addIssue(result, common.IssueError, common.CategoryCompatibility,
					fmt.Sprintf("ingredient %q violates %s restriction", ing.Name, restriction), 8)
			}
		}
	}

	// 過敏原：食安問題，嚴重度最高
	for _, allergen := range reqCtx.Allergies {
		for _, ing := range recipe.Ingredients {
			if strings.Contains(common.NormalizeToken(ing.Name), common.NormalizeToken(allergen)) {
				addIssue(result, common.IssueError, common.CategorySafety,
					fmt.Sprintf("ingredient %q contains allergen %q", ing.Name, allergen), 10)
			}
		}
	}

	// 烹煮時限
	if reqCtx.MaxCookingMinutes > 0 && recipe.CookingMinutes > reqCtx.MaxCookingMinutes {
		addIssue(result, common.IssueWarning, common.CategoryCompatibility,
			fmt.Sprintf("cooking time %d exceeds requested maximum %d", recipe.CookingMinutes, reqCtx.MaxCookingMinutes), 4)
	}
}

// confidence 獨立於分數的信心估計：90 起算，error 扣 15、warning 扣 5，再加完整性加分
func (v *Validator) confidence(recipe *common.Recipe, result *common.ValidationResult) float64 {
	confidence := 90.0
	for _, issue := range result.Issues {
		switch issue.Type {
		case common.IssueError:
			confidence -= 15
		case common.IssueWarning:
			confidence -= 5
		}
	}

	if recipe.Nutrition.Calories > 0 {
		confidence += 2
	}
	if recipe.Nutrition.Protein > 0 || recipe.Nutrition.Carbs > 0 || recipe.Nutrition.Fat > 0 {
		confidence += 2
	}
	if len(recipe.Instructions) >= 3 {
		confidence += 2
	}
	if recipe.CookingMinutes > 0 {
		confidence += 2
	}

	return common.ClampScore(confidence)
}

// buildSuggestions 依問題訊息對應建議模板
func buildSuggestions(issues []common.ValidationIssue) []string {
	suggestions := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	for _, issue := range issues {
		msg := issue.Message
		switch {
		case strings.Contains(msg, "has no amount") || strings.Contains(msg, "has no unit"):
			add("Add specific measurements for every ingredient")
		case strings.Contains(msg, "vague quantities") || strings.Contains(msg, "very short") || strings.Contains(msg, "fewer than two"):
			add("Break the preparation into more detailed, concrete steps")
		case issue.Category == common.CategoryNutrition && strings.Contains(msg, "missing"):
			add("Include calorie and macro estimates")
		case issue.Category == common.CategorySafety:
			add("Review the cooking steps for food safety")
		case strings.Contains(msg, "not in the pantry"):
			add("Use more of the available pantry ingredients")
		case issue.Category == common.CategoryCompatibility:
			add("Replace ingredients that conflict with the dietary constraints")
		}
	}
	return suggestions
}

// matchAny 檢查任一名稱是否命中候選詞表
func matchAny(names []string, candidates []string) bool {
	for _, name := range names {
		n := common.NormalizeToken(name)
		for _, c := range candidates {
			if strings.Contains(n, c) {
				return true
			}
		}
	}
	return false
}

// addIssue 追加一筆問題
func addIssue(result *common.ValidationResult, t common.IssueType, c common.IssueCategory, msg string, severity int) {
	result.Issues = append(result.Issues, common.ValidationIssue{
		Type: t, Category: c, Message: msg, Severity: severity,
	})
}
