package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutriplan-ai/internal/core/ai/provider"
	"nutriplan-ai/internal/pkg/common"
)

// fakeProvider 以預錄回應替代真實供應商
type fakeProvider struct {
	name    string
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Content: f.content}, nil
}

func (f *fakeProvider) Name() string { return f.name }

const validContent = `{
	"recipe": {
		"name": "蕃茄炒蛋",
		"description": "家常快炒",
		"ingredients": [
			{"name": "egg", "amount": 3, "unit": "pcs"},
			{"name": "tomato", "amount": 2, "unit": "pcs"},
			{"name": "scallion", "amount": 1, "unit": "stalk"}
		],
		"instructions": ["Beat the eggs.", "Stir-fry tomatoes.", "Combine and season."],
		"cooking_minutes": 15,
		"servings": 2,
		"difficulty": "easy",
		"nutrition": {"calories": 320, "protein": 18, "carbs": 12, "fat": 22},
		"cuisine": "taiwanese"
	},
	"confidence": 85,
	"reasoning": "Simple pantry-friendly dish."
}`

func baseRequest() *common.RecipeRequest {
	return &common.RecipeRequest{
		AvailableIngredients: []string{"egg", "tomato"},
		MealType:             common.MealDinner,
		UserGoal:             common.GoalGeneralHealth,
		Servings:             2,
		Difficulty:           common.DifficultyEasy,
	}
}

func TestGenerateSuccess(t *testing.T) {
	primary := &fakeProvider{name: "primary", content: validContent}
	client := NewClient(primary, nil)

	resp, err := client.Generate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Recipe == nil {
		t.Fatal("Generate returned nil recipe")
	}
	if resp.Recipe.Name != "蕃茄炒蛋" {
		t.Errorf("recipe name = %q", resp.Recipe.Name)
	}
	if resp.Recipe.ID == "" {
		t.Errorf("recipe ID not assigned")
	}
	if resp.Recipe.Source != SourceAIGenerated {
		t.Errorf("recipe source = %q, want %q", resp.Recipe.Source, SourceAIGenerated)
	}
	if resp.Recipe.MealType != common.MealDinner {
		t.Errorf("meal type = %q, want dinner", resp.Recipe.MealType)
	}
	if resp.Confidence != 85 {
		t.Errorf("confidence = %v, want 85", resp.Confidence)
	}
}

func TestGenerateParsesNoisyResponse(t *testing.T) {
	noisy := "Here is the recipe you asked for:\n```json\n" + validContent + "\n```\nEnjoy your meal!"
	primary := &fakeProvider{name: "primary", content: noisy}
	client := NewClient(primary, nil)

	resp, err := client.Generate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Generate failed on fenced response: %v", err)
	}
	if resp.Recipe.Name != "蕃茄炒蛋" {
		t.Errorf("recipe name = %q", resp.Recipe.Name)
	}
}

func TestGenerateRejectsIncompletePayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", `{"recipe":{"ingredients":[{"name":"egg"}],"instructions":["cook"]},"confidence":80}`},
		{"missing ingredients", `{"recipe":{"name":"x","instructions":["cook"]},"confidence":80}`},
		{"missing instructions", `{"recipe":{"name":"x","ingredients":[{"name":"egg"}]},"confidence":80}`},
		{"not json", "I cannot produce a recipe right now."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeProvider{name: "primary", content: tt.content}
			client := NewClient(primary, nil)

			_, err := client.Generate(context.Background(), baseRequest())
			if err == nil {
				t.Fatal("Generate accepted incomplete payload")
			}
			var pe *common.ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error type = %T, want *common.ParseError", err)
			}
		})
	}
}

func TestGenerateFallsBackToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("rate limited")}
	secondary := &fakeProvider{name: "secondary", content: validContent}
	client := NewClient(primary, secondary)

	resp, err := client.Generate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Generate did not fall back: %v", err)
	}
	if resp.Recipe == nil {
		t.Fatal("fallback returned nil recipe")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls: primary %d secondary %d, want 1 and 1", primary.calls, secondary.calls)
	}
}

func TestGenerateBothProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("down")}
	secondary := &fakeProvider{name: "secondary", err: errors.New("also down")}
	client := NewClient(primary, secondary)

	_, err := client.Generate(context.Background(), baseRequest())
	if err == nil {
		t.Fatal("Generate succeeded with both providers failing")
	}
	var pe *common.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *common.ProviderError", err)
	}
	if pe.Primary == nil || pe.Secondary == nil {
		t.Errorf("ProviderError should record both failures: %+v", pe)
	}
}

func TestGenerateNoSecondaryConfigured(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("down")}
	client := NewClient(primary, nil)

	_, err := client.Generate(context.Background(), baseRequest())
	var pe *common.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *common.ProviderError", err)
	}
	if pe.Secondary != nil {
		t.Errorf("secondary error recorded without a secondary provider")
	}
}

func TestGenerateSkipsFallbackOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &fakeProvider{name: "primary", err: context.Canceled}
	secondary := &fakeProvider{name: "secondary", content: validContent}
	client := NewClient(primary, secondary)

	_, err := client.Generate(ctx, baseRequest())
	if err == nil {
		t.Fatal("Generate succeeded on canceled context")
	}
	if secondary.calls != 0 {
		t.Errorf("secondary was called %d times on canceled context", secondary.calls)
	}
}

func TestEnrichDefaults(t *testing.T) {
	// 回應缺少份量、難度與菜系時由請求補值
	content := `{
		"recipe": {
			"name": "plain congee",
			"ingredients": [{"name": "rice", "amount": 1, "unit": "cup"}],
			"instructions": ["Simmer rice in water."]
		},
		"confidence": 120
	}`
	primary := &fakeProvider{name: "primary", content: content}
	client := NewClient(primary, nil)

	req := baseRequest()
	req.Cuisine = "cantonese"
	resp, err := client.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if resp.Recipe.Servings != req.Servings {
		t.Errorf("servings = %d, want requested %d", resp.Recipe.Servings, req.Servings)
	}
	if resp.Recipe.Difficulty != req.Difficulty {
		t.Errorf("difficulty = %q, want %q", resp.Recipe.Difficulty, req.Difficulty)
	}
	if resp.Recipe.Cuisine != "cantonese" {
		t.Errorf("cuisine = %q, want cantonese", resp.Recipe.Cuisine)
	}
	if resp.Confidence != 100 {
		t.Errorf("confidence not clamped: %v", resp.Confidence)
	}
}

func TestPantryMatch(t *testing.T) {
	ingredients := []common.Ingredient{
		{Name: "egg"},
		{Name: "tomato"},
		{Name: "oyster sauce"},
		{Name: "scallion"},
	}
	pantry := []string{"eggs", "Tomato"}

	pct, missing := PantryMatch(ingredients, pantry)
	if pct != 50 {
		t.Errorf("pantry match = %v, want 50", pct)
	}
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want 2 entries", missing)
	}
	if missing[0] != "oyster sauce" || missing[1] != "scallion" {
		t.Errorf("missing = %v", missing)
	}
}

func TestPantryMatchEmptyIngredients(t *testing.T) {
	pct, missing := PantryMatch(nil, []string{"egg"})
	if pct != 0 || missing != nil {
		t.Errorf("PantryMatch(nil) = %v, %v", pct, missing)
	}
}

func TestBuildPromptIncludesConstraints(t *testing.T) {
	req := baseRequest()
	req.Allergies = []string{"peanut"}
	req.DietaryRestrictions = []string{"vegetarian"}
	req.AvoidIngredients = []string{"cilantro"}
	req.MaxCookingMinutes = 20

	prompt := BuildPrompt(req)
	for _, want := range []string{"egg", "tomato", "peanut", "vegetarian", "cilantro", "20"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
