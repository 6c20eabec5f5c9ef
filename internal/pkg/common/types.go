package common

import (
	"strings"
	"time"
)

// MealType 餐別
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// AllMealTypes 依固定順序列出所有餐別
var AllMealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid 檢查餐別是否合法
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// UserGoal 使用者飲食目標
type UserGoal string

const (
	GoalWeightLoss    UserGoal = "weight_loss"
	GoalMuscleGain    UserGoal = "muscle_gain"
	GoalMaintenance   UserGoal = "maintenance"
	GoalGeneralHealth UserGoal = "general_health"
)

// Valid 檢查目標是否合法
func (g UserGoal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalGeneralHealth:
		return true
	}
	return false
}

// Difficulty 食譜難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// RecipeRequest 正規化後的食譜生成請求
// 正規化後保證：食材列表不含重複項、servings >= 1
type RecipeRequest struct {
	AvailableIngredients []string   `json:"available_ingredients"`
	MealType             MealType   `json:"meal_type"`
	Servings             int        `json:"servings"`
	MaxCookingMinutes    int        `json:"max_cooking_minutes,omitempty"` // 0 表示未指定
	Cuisine              string     `json:"cuisine,omitempty"`
	DietaryRestrictions  []string   `json:"dietary_restrictions"`
	Allergies            []string   `json:"allergies"`
	AvoidIngredients     []string   `json:"avoid_ingredients"`
	PreferredIngredients []string   `json:"preferred_ingredients"`
	UserGoal             UserGoal   `json:"user_goal"`
	CalorieTarget        int        `json:"calorie_target,omitempty"`
	Difficulty           Difficulty `json:"difficulty"`
}

// Clone 深拷貝請求，變異重試時使用
func (r *RecipeRequest) Clone() *RecipeRequest {
	if r == nil {
		return nil
	}
	cp := *r
	cp.AvailableIngredients = append([]string(nil), r.AvailableIngredients...)
	cp.DietaryRestrictions = append([]string(nil), r.DietaryRestrictions...)
	cp.Allergies = append([]string(nil), r.Allergies...)
	cp.AvoidIngredients = append([]string(nil), r.AvoidIngredients...)
	cp.PreferredIngredients = append([]string(nil), r.PreferredIngredients...)
	return &cp
}

// LegacySearchParams 舊版搜尋參數（寬鬆型別），由 Normalizer 轉為 RecipeRequest
type LegacySearchParams struct {
	Ingredients         []string `json:"ingredients"`
	MealType            string   `json:"meal_type,omitempty"`
	Servings            int      `json:"servings,omitempty"`
	MaxTime             int      `json:"max_time,omitempty"`
	Cuisine             string   `json:"cuisine,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	Goal                string   `json:"goal,omitempty"`
	Calories            int      `json:"calories,omitempty"`
}

// Ingredient 食材
type Ingredient struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
	Optional bool    `json:"optional,omitempty"`
}

// Nutrition 營養成分（卡路里與宏量營養素，克）
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Add 累加另一份營養成分
func (n *Nutrition) Add(other Nutrition) {
	n.Calories += other.Calories
	n.Protein += other.Protein
	n.Carbs += other.Carbs
	n.Fat += other.Fat
	n.Fiber += other.Fiber
}

// Recipe 生成的食譜
// PantryMatch 與 CompatibilityScore 一律落在 [0,100]
type Recipe struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Ingredients        []Ingredient `json:"ingredients"`
	Instructions       []string     `json:"instructions"`
	CookingMinutes     int          `json:"cooking_minutes"`
	Servings           int          `json:"servings"`
	Difficulty         Difficulty   `json:"difficulty"`
	Nutrition          Nutrition    `json:"nutrition"`
	Tags               []string     `json:"tags,omitempty"`
	Cuisine            string       `json:"cuisine,omitempty"`
	MealType           MealType     `json:"meal_type"`
	PantryMatch        float64      `json:"pantry_match"`
	MissingIngredients []string     `json:"missing_ingredients"`
	CompatibilityScore float64      `json:"compatibility_score"`
	Source             string       `json:"source"`
	CreatedAt          time.Time    `json:"created_at"`
}

// AIRecipeResponse AI 生成結果（食譜 + 信心值 + 推理說明）
type AIRecipeResponse struct {
	Recipe       *Recipe  `json:"recipe"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// IssueType 問題類型
type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
	IssueInfo    IssueType = "info"
)

// IssueCategory 問題分類
type IssueCategory string

const (
	CategoryIngredients   IssueCategory = "ingredients"
	CategoryInstructions  IssueCategory = "instructions"
	CategoryNutrition     IssueCategory = "nutrition"
	CategorySafety        IssueCategory = "safety"
	CategoryCompatibility IssueCategory = "compatibility"
)

// ValidationIssue 驗證問題，Severity 介於 1-10，逐項從分數中扣除
type ValidationIssue struct {
	Type     IssueType     `json:"type"`
	Category IssueCategory `json:"category"`
	Message  string        `json:"message"`
	Severity int           `json:"severity"`
}

// ValidationResult 驗證結果
// IsValid 僅在分數達門檻且不含 error 類型問題時為 true
type ValidationResult struct {
	IsValid     bool              `json:"is_valid"`
	Score       float64           `json:"score"`
	Issues      []ValidationIssue `json:"issues"`
	Suggestions []string          `json:"suggestions"`
	Confidence  float64           `json:"confidence"`
}

// HasErrors 檢查是否含 error 類型問題
func (v *ValidationResult) HasErrors() bool {
	for _, issue := range v.Issues {
		if issue.Type == IssueError {
			return true
		}
	}
	return false
}

// OrchestrationResult 單次編排結果，回傳後不再變動
// Recipe 非 nil 與 Success 為 true 互為充要條件
type OrchestrationResult struct {
	Recipe       *Recipe       `json:"recipe"`
	Success      bool          `json:"success"`
	Attempts     int           `json:"attempts"`
	Errors       []string      `json:"errors"`
	Elapsed      time.Duration `json:"elapsed"`
	QualityScore float64       `json:"quality_score,omitempty"`
}

// MealPlanPreferences 全域偏好，派發前以集合聯集併入各餐別請求
type MealPlanPreferences struct {
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	UserGoal            UserGoal `json:"user_goal,omitempty"`
	PreferredCuisines   []string `json:"preferred_cuisines,omitempty"`
}

// MealPlanRequest 餐食計畫請求，最多四個獨立餐別請求
type MealPlanRequest struct {
	Slots       map[MealType]*RecipeRequest `json:"slots"`
	Preferences MealPlanPreferences         `json:"preferences"`
}

// PlanMetadata 生成中繼資料
type PlanMetadata struct {
	Attempts            map[MealType]int `json:"attempts"`
	UserGoal            UserGoal         `json:"user_goal"`
	DietaryRestrictions []string         `json:"dietary_restrictions,omitempty"`
	Allergies           []string         `json:"allergies,omitempty"`
}

// MealPlan 組裝完成的餐食計畫，組裝後不可變
type MealPlan struct {
	ID               string               `json:"id"`
	CreatedAt        time.Time            `json:"created_at"`
	Recipes          map[MealType]*Recipe `json:"recipes"`
	TotalNutrition   Nutrition            `json:"total_nutrition"`
	VarietyScore     float64              `json:"variety_score"`
	QualityScore     float64              `json:"quality_score"`
	PantryMatchScore float64              `json:"pantry_match_score"`
	Metadata         PlanMetadata         `json:"metadata"`
}

// MealPlanResult 餐食計畫組裝結果，保留各餐別的編排與驗證細節供呼叫端檢視
type MealPlanResult struct {
	Success         bool                              `json:"success"`
	MealPlan        *MealPlan                         `json:"meal_plan"`
	Errors          []string                          `json:"errors,omitempty"`
	SlotResults     map[MealType]*OrchestrationResult `json:"slot_results"`
	SlotValidations map[MealType]*ValidationResult    `json:"slot_validations"`
}

// ClampScore 將分數限制在 [0,100]
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NormalizeToken 統一食材字串（去空白、轉小寫），供比對與指紋使用
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FormatIngredientNames 格式化食材名稱列表為提示詞片段
func FormatIngredientNames(names []string) string {
	if len(names) == 0 {
		return "（無）"
	}
	return strings.Join(names, "、")
}
