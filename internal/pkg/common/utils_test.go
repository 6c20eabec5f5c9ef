package common

import (
	"reflect"
	"testing"
)

func TestUniqueTokens(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "removes case-insensitive duplicates",
			input: []string{"Egg", "egg", "EGG", "milk"},
			want:  []string{"egg", "milk"},
		},
		{
			name:  "preserves first-seen order",
			input: []string{"tofu", "rice", "tofu", "beans"},
			want:  []string{"tofu", "rice", "beans"},
		},
		{
			name:  "drops empty and whitespace entries",
			input: []string{"", "  ", "salt"},
			want:  []string{"salt"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueTokens(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UniqueTokens(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnionTokens(t *testing.T) {
	got := UnionTokens([]string{"egg", "milk"}, []string{"Milk", "flour"})
	want := []string{"egg", "milk", "flour"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnionTokens = %v, want %v", got, want)
	}
}

func TestContainsToken(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		needle string
		want   bool
	}{
		{"exact match", []string{"egg", "milk"}, "egg", true},
		{"needle inside token", []string{"chicken breast"}, "chicken", true},
		{"token inside needle", []string{"egg"}, "eggs", true},
		{"case insensitive", []string{"Soy Sauce"}, "soy sauce", true},
		{"no match", []string{"rice", "beans"}, "pork", false},
		{"empty needle", []string{"rice"}, "", false},
		{"empty tokens", nil, "rice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsToken(tt.tokens, tt.needle); got != tt.want {
				t.Errorf("ContainsToken(%v, %q) = %v, want %v", tt.tokens, tt.needle, got, tt.want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-10, 0},
		{0, 0},
		{55.5, 55.5},
		{100, 100},
		{130, 100},
	}

	for _, tt := range tests {
		if got := ClampScore(tt.input); got != tt.want {
			t.Errorf("ClampScore(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNutritionAdd(t *testing.T) {
	total := Nutrition{}
	total.Add(Nutrition{Calories: 400, Protein: 20, Carbs: 50, Fat: 10, Fiber: 5})
	total.Add(Nutrition{Calories: 600, Protein: 30, Carbs: 40, Fat: 25, Fiber: 8})

	want := Nutrition{Calories: 1000, Protein: 50, Carbs: 90, Fat: 35, Fiber: 13}
	if total != want {
		t.Errorf("Nutrition.Add accumulated %+v, want %+v", total, want)
	}
}

func TestRecipeRequestClone(t *testing.T) {
	orig := &RecipeRequest{
		AvailableIngredients: []string{"egg", "rice"},
		MealType:             MealBreakfast,
		Allergies:            []string{"peanut"},
	}

	clone := orig.Clone()
	clone.AvailableIngredients[0] = "tofu"
	clone.Allergies = append(clone.Allergies, "shrimp")

	if orig.AvailableIngredients[0] != "egg" {
		t.Errorf("Clone shares ingredient slice with original")
	}
	if len(orig.Allergies) != 1 {
		t.Errorf("Clone shares allergy slice with original")
	}
}
