package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"nutriplan-ai/internal/pkg/common"
)

// Store 以請求指紋為鍵的生成結果快取
// 同一指紋在行程存活期內首次寫入有效，之後的 Put 不覆寫
type Store interface {
	// Get 依指紋取得先前接受的生成結果，未命中回傳 (nil, nil)
	Get(ctx context.Context, fingerprint string) (*common.AIRecipeResponse, error)

	// Put 寫入生成結果；同鍵已存在時為 no-op
	Put(ctx context.Context, fingerprint string, resp *common.AIRecipeResponse) error

	// Clear 清空全部條目
	Clear(ctx context.Context) error

	// Size 回傳目前條目數
	Size(ctx context.Context) (int, error)
}

// Fingerprint 從請求的關鍵欄位導出正規化指紋
// 食材與過敏原列表先排序，語義相同但順序不同的請求會映射到同一鍵
func Fingerprint(req *common.RecipeRequest) string {
	ingredients := sortedLower(req.AvailableIngredients)
	allergies := sortedLower(req.Allergies)

	var sb strings.Builder
	sb.WriteString(strings.Join(ingredients, ","))
	sb.WriteString("|")
	sb.WriteString(string(req.MealType))
	sb.WriteString("|")
	sb.WriteString(string(req.UserGoal))
	sb.WriteString("|")
	sb.WriteString(strings.Join(allergies, ","))
	sb.WriteString("|")
	sb.WriteString(common.NormalizeToken(req.Cuisine))

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// sortedLower 正規化並排序字串列表，不改動輸入
func sortedLower(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := common.NormalizeToken(item); t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
