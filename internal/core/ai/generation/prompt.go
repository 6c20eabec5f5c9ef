package generation

import (
	"fmt"
	"strings"

	"nutriplan-ai/internal/pkg/common"
)

// systemInstruction 固定的系統指令
const systemInstruction = "You are a professional nutritionist and chef. You respond with a single JSON object only, no markdown fences, no commentary."

// pairRules 食材相容性提示規則，與驗證器的啟發式保持一致
var pairRules = []string{
	"avoid combining fish with dairy in the same dish",
	"avoid combining citrus with milk (curdling)",
	"do not pair melon with cured meats for cooked dishes",
}

// goalGuidance 目標 × 餐別的營養指引
var goalGuidance = map[common.UserGoal]map[common.MealType]string{
	common.GoalWeightLoss: {
		common.MealBreakfast: "keep the meal under 400 kcal, favor protein and fiber for satiety",
		common.MealLunch:     "keep the meal around 450 kcal with lean protein and vegetables",
		common.MealDinner:    "keep the meal under 500 kcal, light on refined carbs",
		common.MealSnack:     "keep the snack under 200 kcal",
	},
	common.GoalMuscleGain: {
		common.MealBreakfast: "include at least 25g of protein",
		common.MealLunch:     "include at least 35g of protein and complex carbs",
		common.MealDinner:    "include at least 30g of protein",
		common.MealSnack:     "favor a protein-dense snack of at least 15g protein",
	},
	common.GoalMaintenance: {
		common.MealBreakfast: "balance macros roughly 30/40/30 protein/carbs/fat",
		common.MealLunch:     "balance macros roughly 30/40/30 protein/carbs/fat",
		common.MealDinner:    "balance macros roughly 30/40/30 protein/carbs/fat",
		common.MealSnack:     "keep the snack balanced and under 250 kcal",
	},
	common.GoalGeneralHealth: {
		common.MealBreakfast: "favor whole foods and include some fiber",
		common.MealLunch:     "favor whole foods, vegetables and moderate portions",
		common.MealDinner:    "favor whole foods and avoid excessive fat",
		common.MealSnack:     "favor fruit, nuts or yogurt style snacks",
	},
}

// BuildPrompt 構建生成提示詞
// 嵌入可用食材、餐別、份量與各項限制，並以編號規則約束輸出格式
func BuildPrompt(req *common.RecipeRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create a %s recipe for %d serving(s).\n\n", req.MealType, req.Servings))

	sb.WriteString("Available ingredients (the pantry):\n")
	if len(req.AvailableIngredients) == 0 {
		sb.WriteString("- (none declared; pick common staples)\n")
	}
	for _, ing := range req.AvailableIngredients {
		sb.WriteString("- " + ing + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Constraints:\n")
	if req.MaxCookingMinutes > 0 {
		sb.WriteString(fmt.Sprintf("- total cooking time must not exceed %d minutes\n", req.MaxCookingMinutes))
	}
	if req.Cuisine != "" {
		sb.WriteString(fmt.Sprintf("- cuisine style: %s\n", req.Cuisine))
	}
	if req.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("- difficulty: %s\n", req.Difficulty))
	}
	if req.CalorieTarget > 0 {
		sb.WriteString(fmt.Sprintf("- target roughly %d kcal per serving\n", req.CalorieTarget))
	}
	if len(req.DietaryRestrictions) > 0 {
		sb.WriteString(fmt.Sprintf("- dietary restrictions (must respect): %s\n", strings.Join(req.DietaryRestrictions, ", ")))
	}
	if len(req.Allergies) > 0 {
		sb.WriteString(fmt.Sprintf("- allergies (must strictly exclude): %s\n", strings.Join(req.Allergies, ", ")))
	}
	if len(req.AvoidIngredients) > 0 {
		sb.WriteString(fmt.Sprintf("- do not use: %s\n", strings.Join(req.AvoidIngredients, ", ")))
	}
	if len(req.PreferredIngredients) > 0 {
		sb.WriteString(fmt.Sprintf("- prefer using or styling toward: %s\n", strings.Join(req.PreferredIngredients, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("Ingredient compatibility rules:\n")
	for _, rule := range pairRules {
		sb.WriteString("- " + rule + "\n")
	}
	if guidance, ok := goalGuidance[req.UserGoal][req.MealType]; ok {
		sb.WriteString(fmt.Sprintf("\nNutritional guidance (goal %s, %s): %s\n", req.UserGoal, req.MealType, guidance))
	}
	sb.WriteString("\n")

	sb.WriteString(`Requirements:
1. Use only the available ingredients plus basic seasonings (salt, pepper, oil, water).
2. Every instruction step must be a concrete action with quantities, times and temperatures.
3. Estimate nutrition from the actual ingredients and servings.
4. cooking_minutes must be an integer covering preparation plus cooking.
5. All ingredient amounts must be numeric with an explicit unit.
6. Return the most compact JSON possible, all keys double quoted, no trailing text.

Return exactly this JSON shape (example only, do not copy values):
{"recipe":{"name":"dish name","description":"short description","ingredients":[{"name":"ingredient","amount":1.5,"unit":"cup","category":"produce","optional":false}],"instructions":["step one","step two"],"cooking_minutes":20,"servings":2,"difficulty":"easy","nutrition":{"calories":420,"protein":22,"carbs":40,"fat":16,"fiber":6},"tags":["quick"],"cuisine":"italian"},"confidence":85,"reasoning":"why this recipe fits","alternatives":["other dish idea"]}
`)

	return sb.String()
}
