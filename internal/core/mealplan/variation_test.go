package mealplan

import (
	"reflect"
	"testing"

	"nutriplan-ai/internal/pkg/common"
)

func rejectedRecipe() *common.Recipe {
	return &common.Recipe{
		Name: "heavy stew",
		Ingredients: []common.Ingredient{
			{Name: "potato", Amount: 500, Unit: "g"},
			{Name: "beef", Amount: 300, Unit: "g"},
			{Name: "carrot", Amount: 100, Unit: "g"},
			{Name: "bay leaf", Amount: 1, Unit: "pcs"},
			{Name: "parsley", Amount: 5, Unit: "g", Optional: true},
		},
	}
}

func TestDeriveVariedRequestAvoidsProminentIngredients(t *testing.T) {
	original := &common.RecipeRequest{
		MealType:         common.MealDinner,
		AvoidIngredients: []string{"cilantro"},
	}

	varied := DeriveVariedRequest(original, rejectedRecipe(), 1)

	// 前三大用量的非選配食材進入避免清單，選配的 parsley 不納入
	want := []string{"cilantro", "potato", "beef", "carrot"}
	if !reflect.DeepEqual(varied.AvoidIngredients, want) {
		t.Errorf("avoid list = %v, want %v", varied.AvoidIngredients, want)
	}
}

func TestDeriveVariedRequestStyleTagRotation(t *testing.T) {
	original := &common.RecipeRequest{MealType: common.MealDinner}

	for i, want := range []string{"modern", "simple", "gourmet", "traditional"} {
		attempt := i + 1
		varied := DeriveVariedRequest(original, nil, attempt)
		if len(varied.PreferredIngredients) != 1 || varied.PreferredIngredients[0] != want {
			t.Errorf("attempt %d preferred = %v, want [%s]", attempt, varied.PreferredIngredients, want)
		}
	}
}

func TestDeriveVariedRequestIsPure(t *testing.T) {
	original := &common.RecipeRequest{
		MealType:         common.MealDinner,
		AvoidIngredients: []string{"cilantro"},
	}
	rejected := rejectedRecipe()

	first := DeriveVariedRequest(original, rejected, 2)
	second := DeriveVariedRequest(original, rejected, 2)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same inputs produced different variations:\n%+v\n%+v", first, second)
	}
	if len(original.AvoidIngredients) != 1 {
		t.Errorf("original request was mutated: %v", original.AvoidIngredients)
	}
}

func TestDeriveVariedRequestNoRejectedRecipe(t *testing.T) {
	original := &common.RecipeRequest{MealType: common.MealLunch}
	varied := DeriveVariedRequest(original, nil, 0)

	if len(varied.AvoidIngredients) != 0 {
		t.Errorf("avoid list = %v, want empty", varied.AvoidIngredients)
	}
	if len(varied.PreferredIngredients) != 1 {
		t.Errorf("preferred = %v, want a single style tag", varied.PreferredIngredients)
	}
}

func TestProminentIngredientsFewerThanLimit(t *testing.T) {
	recipe := &common.Recipe{
		Ingredients: []common.Ingredient{
			{Name: "Tofu", Amount: 200},
		},
	}
	got := prominentIngredients(recipe, 3)
	if len(got) != 1 || got[0] != "Tofu" {
		t.Errorf("prominentIngredients = %v, want [Tofu]", got)
	}
}

func TestProminentIngredientsStableOnTies(t *testing.T) {
	recipe := &common.Recipe{
		Ingredients: []common.Ingredient{
			{Name: "rice", Amount: 100},
			{Name: "beans", Amount: 100},
			{Name: "corn", Amount: 100},
		},
	}
	got := prominentIngredients(recipe, 2)
	want := []string{"rice", "beans"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("prominentIngredients = %v, want %v", got, want)
	}
}
