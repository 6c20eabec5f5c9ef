package generation

import (
	"context"
	"time"

	"nutriplan-ai/internal/core/ai/provider"
	"nutriplan-ai/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SourceAIGenerated 生成食譜的來源標記
	SourceAIGenerated = "ai_generated"

	defaultMaxTokens   = 2048
	defaultTemperature = 0.7
)

// Client 生成客戶端：單次生成呼叫加備援供應商
type Client struct {
	primary   provider.Provider
	secondary provider.Provider
}

// NewClient 創建生成客戶端，secondary 可為 nil
func NewClient(primary, secondary provider.Provider) *Client {
	return &Client{
		primary:   primary,
		secondary: secondary,
	}
}

// responsePayload AI 回應的固定結構
type responsePayload struct {
	Recipe       recipePayload `json:"recipe"`
	Confidence   float64       `json:"confidence"`
	Reasoning    string        `json:"reasoning"`
	Alternatives []string      `json:"alternatives"`
}

// recipePayload AI 回應中的食譜結構
type recipePayload struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Ingredients    []common.Ingredient `json:"ingredients"`
	Instructions   []string            `json:"instructions"`
	CookingMinutes int                 `json:"cooking_minutes"`
	Servings       int                 `json:"servings"`
	Difficulty     string              `json:"difficulty"`
	Nutrition      common.Nutrition    `json:"nutrition"`
	Tags           []string            `json:"tags"`
	Cuisine        string              `json:"cuisine"`
}

// Generate 發出一次生成呼叫；主供應商失敗時改用備援供應商
// 一次呼叫最多產生兩筆計費請求，不改動任何本地狀態
func (c *Client) Generate(ctx context.Context, req *common.RecipeRequest) (*common.AIRecipeResponse, error) {
	provReq := &provider.Request{
		System:      systemInstruction,
		Prompt:      BuildPrompt(req),
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	start := time.Now()
	resp, primaryErr := c.primary.Generate(ctx, provReq)
	common.LogAICall(c.primary.Name(), time.Since(start), primaryErr, "")

	if primaryErr != nil {
		if ctx.Err() != nil {
			// 超時或取消不再打備援，交由編排器分類
			return nil, primaryErr
		}
		if c.secondary == nil {
			return nil, &common.ProviderError{Primary: primaryErr}
		}

		common.LogWarn("主供應商失敗，改用備援供應商",
			zap.String("primary", c.primary.Name()),
			zap.String("secondary", c.secondary.Name()),
			zap.Error(primaryErr),
		)

		start = time.Now()
		var secondaryErr error
		resp, secondaryErr = c.secondary.Generate(ctx, provReq)
		common.LogAICall(c.secondary.Name(), time.Since(start), secondaryErr, "")
		if secondaryErr != nil {
			return nil, &common.ProviderError{Primary: primaryErr, Secondary: secondaryErr}
		}
	}

	parsed, err := parseResponse(resp.Content)
	if err != nil {
		return nil, err
	}

	return c.enrich(parsed, req), nil
}

// parseResponse 解析 AI 文字回應
// 先嘗試直接解析；失敗時抽取第一個頂層 {...} 區塊重試；仍失敗回傳 ParseError
// 必要欄位缺漏一律拒絕，不做推測補值
func parseResponse(content string) (*responsePayload, error) {
	var payload responsePayload
	if err := common.ParseJSON(content, &payload); err != nil {
		block, ok := common.ExtractJSONObject(content)
		if !ok {
			return nil, &common.ParseError{Reason: "no JSON object in response", Err: err}
		}
		if err := common.ParseJSON(block, &payload); err != nil {
			return nil, &common.ParseError{Reason: "extracted block is not valid JSON", Err: err}
		}
	}

	// 嚴格必要欄位檢查
	switch {
	case payload.Recipe.Name == "":
		return nil, &common.ParseError{Reason: "recipe name is missing"}
	case len(payload.Recipe.Ingredients) == 0:
		return nil, &common.ParseError{Reason: "recipe has no ingredients"}
	case len(payload.Recipe.Instructions) == 0:
		return nil, &common.ParseError{Reason: "recipe has no instructions"}
	}

	return &payload, nil
}

// enrich 補充解析後的食譜：儲藏室匹配度、缺漏食材、識別欄位
func (c *Client) enrich(payload *responsePayload, req *common.RecipeRequest) *common.AIRecipeResponse {
	p := payload.Recipe
	recipe := &common.Recipe{
		ID:             uuid.New().String(),
		Name:           p.Name,
		Description:    p.Description,
		Ingredients:    p.Ingredients,
		Instructions:   p.Instructions,
		CookingMinutes: p.CookingMinutes,
		Servings:       p.Servings,
		Difficulty:     common.Difficulty(p.Difficulty),
		Nutrition:      p.Nutrition,
		Tags:           p.Tags,
		Cuisine:        p.Cuisine,
		MealType:       req.MealType,
		Source:         SourceAIGenerated,
		CreatedAt:      time.Now().UTC(),
	}
	if recipe.Servings <= 0 {
		recipe.Servings = req.Servings
	}
	if recipe.Difficulty == "" {
		recipe.Difficulty = req.Difficulty
	}
	if recipe.Cuisine == "" {
		recipe.Cuisine = req.Cuisine
	}

	recipe.PantryMatch, recipe.MissingIngredients = PantryMatch(recipe.Ingredients, req.AvailableIngredients)

	// 接受判定前的暫定分數；驗證後由編排器以驗證分數覆寫
	recipe.CompatibilityScore = common.ClampScore(payload.Confidence)

	return &common.AIRecipeResponse{
		Recipe:       recipe,
		Confidence:   common.ClampScore(payload.Confidence),
		Reasoning:    payload.Reasoning,
		Alternatives: payload.Alternatives,
	}
}

// PantryMatch 計算食譜食材可由儲藏室滿足的百分比與缺漏清單
// 名稱比對為不分大小寫的雙向子字串包含
func PantryMatch(ingredients []common.Ingredient, pantry []string) (float64, []string) {
	if len(ingredients) == 0 {
		return 0, nil
	}

	matched := 0
	missing := make([]string, 0)
	for _, ing := range ingredients {
		if common.ContainsToken(pantry, ing.Name) {
			matched++
		} else {
			missing = append(missing, ing.Name)
		}
	}

	pct := float64(matched) / float64(len(ingredients)) * 100
	return common.ClampScore(pct), missing
}
