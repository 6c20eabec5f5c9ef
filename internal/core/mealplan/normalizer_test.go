package mealplan

import (
	"reflect"
	"testing"

	"nutriplan-ai/internal/pkg/common"
)

func TestNormalizeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *common.RecipeRequest
		wantErr bool
		check   func(t *testing.T, out *common.RecipeRequest)
	}{
		{
			name:    "nil request",
			req:     nil,
			wantErr: true,
		},
		{
			name:    "invalid meal type",
			req:     &common.RecipeRequest{MealType: "brunch"},
			wantErr: true,
		},
		{
			name:    "negative servings",
			req:     &common.RecipeRequest{MealType: common.MealDinner, Servings: -1},
			wantErr: true,
		},
		{
			name:    "negative cooking limit",
			req:     &common.RecipeRequest{MealType: common.MealDinner, MaxCookingMinutes: -5},
			wantErr: true,
		},
		{
			name:    "invalid goal",
			req:     &common.RecipeRequest{MealType: common.MealDinner, UserGoal: "bulking"},
			wantErr: true,
		},
		{
			name: "defaults applied",
			req:  &common.RecipeRequest{MealType: common.MealLunch},
			check: func(t *testing.T, out *common.RecipeRequest) {
				if out.Servings != defaultServings {
					t.Errorf("servings = %d, want %d", out.Servings, defaultServings)
				}
				if out.UserGoal != common.GoalGeneralHealth {
					t.Errorf("goal = %q, want general_health", out.UserGoal)
				}
				if out.Difficulty != common.DifficultyEasy {
					t.Errorf("difficulty = %q, want easy", out.Difficulty)
				}
			},
		},
		{
			name: "ingredient lists deduplicated and lowercased",
			req: &common.RecipeRequest{
				MealType:             common.MealDinner,
				AvailableIngredients: []string{"Egg", "egg", "Rice "},
				Allergies:            []string{"Peanut", "peanut"},
			},
			check: func(t *testing.T, out *common.RecipeRequest) {
				if want := []string{"egg", "rice"}; !reflect.DeepEqual(out.AvailableIngredients, want) {
					t.Errorf("ingredients = %v, want %v", out.AvailableIngredients, want)
				}
				if want := []string{"peanut"}; !reflect.DeepEqual(out.Allergies, want) {
					t.Errorf("allergies = %v, want %v", out.Allergies, want)
				}
			},
		},
		{
			name: "empty pantry is legal",
			req:  &common.RecipeRequest{MealType: common.MealBreakfast},
			check: func(t *testing.T, out *common.RecipeRequest) {
				if out.AvailableIngredients == nil {
					t.Errorf("ingredient list should be an empty slice, not nil")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NormalizeRequest(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestNormalizeRequestDoesNotMutateInput(t *testing.T) {
	req := &common.RecipeRequest{
		MealType:             common.MealDinner,
		AvailableIngredients: []string{"Egg", "Egg"},
	}

	if _, err := NormalizeRequest(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.AvailableIngredients) != 2 || req.AvailableIngredients[0] != "Egg" {
		t.Errorf("input request was mutated: %v", req.AvailableIngredients)
	}
	if req.Servings != 0 {
		t.Errorf("input servings was mutated: %d", req.Servings)
	}
}

func TestNormalizeLegacyParams(t *testing.T) {
	tests := []struct {
		name    string
		params  common.LegacySearchParams
		wantErr bool
		check   func(t *testing.T, out *common.RecipeRequest)
	}{
		{
			name:   "defaults for empty fields",
			params: common.LegacySearchParams{Ingredients: []string{"egg"}},
			check: func(t *testing.T, out *common.RecipeRequest) {
				if out.MealType != common.MealDinner {
					t.Errorf("meal type = %q, want dinner", out.MealType)
				}
				if out.UserGoal != common.GoalGeneralHealth {
					t.Errorf("goal = %q, want general_health", out.UserGoal)
				}
			},
		},
		{
			name: "fields mapped through",
			params: common.LegacySearchParams{
				Ingredients: []string{"tofu"},
				MealType:    "Lunch",
				Goal:        "MUSCLE_GAIN",
				MaxTime:     25,
				Cuisine:     "thai",
			},
			check: func(t *testing.T, out *common.RecipeRequest) {
				if out.MealType != common.MealLunch {
					t.Errorf("meal type = %q, want lunch", out.MealType)
				}
				if out.UserGoal != common.GoalMuscleGain {
					t.Errorf("goal = %q, want muscle_gain", out.UserGoal)
				}
				if out.MaxCookingMinutes != 25 {
					t.Errorf("max cooking minutes = %d, want 25", out.MaxCookingMinutes)
				}
			},
		},
		{
			name:    "invalid meal type rejected",
			params:  common.LegacySearchParams{MealType: "supper"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NormalizeLegacyParams(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}
