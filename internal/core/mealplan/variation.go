package mealplan

import (
	"sort"

	"nutriplan-ai/internal/pkg/common"
)

// styleTags 變異用的風格標籤，依嘗試序號輪替
var styleTags = []string{"traditional", "modern", "simple", "gourmet"}

// maxAvoidFromRejected 每次變異最多帶入避免清單的食材數
const maxAvoidFromRejected = 3

// DeriveVariedRequest 由被拒絕的食譜導出下一次嘗試的請求
// 純函式：將被拒食譜中最主要的 2-3 項食材加入避免清單，並依嘗試序號
// 加入一個風格標籤，引導下一次生成避開重複的低品質結果
func DeriveVariedRequest(original *common.RecipeRequest, rejected *common.Recipe, attemptIndex int) *common.RecipeRequest {
	varied := original.Clone()
	if rejected != nil {
		prominent := prominentIngredients(rejected, maxAvoidFromRejected)
		varied.AvoidIngredients = common.UnionTokens(varied.AvoidIngredients, prominent)
	}

	tag := styleTags[attemptIndex%len(styleTags)]
	varied.PreferredIngredients = common.UnionTokens(varied.PreferredIngredients, []string{tag})
	return varied
}

// prominentIngredients 取被拒食譜中用量排序最前的非選配食材名稱
func prominentIngredients(recipe *common.Recipe, limit int) []string {
	type weighted struct {
		name   string
		amount float64
		index  int
	}

	items := make([]weighted, 0, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		if ing.Optional {
			continue
		}
		items = append(items, weighted{name: ing.Name, amount: ing.Amount, index: i})
	}

	// 依用量降冪，等量時保持原始順序
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].amount > items[b].amount
	})

	if limit > len(items) {
		limit = len(items)
	}
	names := make([]string, 0, limit)
	for _, item := range items[:limit] {
		names = append(names, item.name)
	}
	return names
}
