package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriplan-ai/internal/core/ai/cache"
	"nutriplan-ai/internal/core/mealplan"
	"nutriplan-ai/internal/infrastructure/config"
	"nutriplan-ai/internal/pkg/common"
)

// stubClient 回傳固定食譜的生成替身
type stubClient struct{}

func (stubClient) Generate(ctx context.Context, req *common.RecipeRequest) (*common.AIRecipeResponse, error) {
	return &common.AIRecipeResponse{
		Recipe: &common.Recipe{
			ID:   "r1",
			Name: "Chicken rice bowl",
			Ingredients: []common.Ingredient{
				{Name: "chicken breast", Amount: 300, Unit: "g"},
				{Name: "rice", Amount: 1, Unit: "cup"},
			},
			Instructions: []string{
				"Cook the rice in 2 cups of water for 15 minutes.",
				"Grill the chicken breast for 6 minutes per side.",
				"Combine everything and season with salt and pepper.",
			},
			CookingMinutes: 30,
			Servings:       2,
			Nutrition:      common.Nutrition{Calories: 550, Protein: 35, Carbs: 60, Fat: 12},
			MealType:       req.MealType,
		},
		Confidence: 85,
	}, nil
}

func testRouter() http.Handler {
	cfg := &config.Config{
		Server:       config.ServerConfig{Port: 8080},
		Orchestrator: config.OrchestratorConfig{MaxRetries: 3, QualityThreshold: 70, AttemptTimeout: time.Second, EnableVariation: true},
	}
	store := cache.NewMemoryStore()
	service := mealplan.NewService(stubClient{}, store, nil, mealplan.Options{
		MaxRetries:       3,
		QualityThreshold: 70,
		AttemptTimeout:   time.Second,
		EnableVariation:  true,
	})
	return SetupRouter(cfg, service, store)
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/health", "/ready", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestGenerateRecipeEndpoint(t *testing.T) {
	router := testRouter()

	body := `{
		"available_ingredients": ["chicken breast", "rice"],
		"meal_type": "dinner",
		"servings": 2
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipe/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Recipe  *common.Recipe `json:"recipe"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !resp.Success || resp.Recipe == nil {
		t.Errorf("unexpected response: %s", w.Body.String())
	}
}

func TestGenerateRecipeEndpointRejectsBadRequest(t *testing.T) {
	router := testRouter()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"meal_type":`},
		{"invalid meal type", `{"meal_type": "brunch"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recipe/generate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestValidateRecipeEndpoint(t *testing.T) {
	router := testRouter()

	body := `{
		"recipe": {
			"name": "plain salad",
			"ingredients": [{"name": "lettuce", "amount": 100, "unit": "g"}],
			"instructions": ["Wash and tear the lettuce into pieces.", "Toss with dressing and serve chilled."],
			"cooking_minutes": 5,
			"servings": 1
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipe/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result common.ValidationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response not a validation result: %v", err)
	}
	if result.Score <= 0 {
		t.Errorf("score = %v, want positive", result.Score)
	}
}

func TestCacheEndpoints(t *testing.T) {
	router := testRouter()

	// 先生成一次讓快取有內容
	body := `{"available_ingredients": ["chicken breast", "rice"], "meal_type": "dinner"}`
	genReq := httptest.NewRequest(http.MethodPost, "/api/v1/recipe/generate", strings.NewReader(body))
	genReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), genReq)

	statsReq := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, statsReq)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("stats not JSON: %v", err)
	}
	if stats["size"].(float64) != 1 {
		t.Errorf("cache size = %v, want 1", stats["size"])
	}

	clearReq := httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, clearReq)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	var after map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &after)
	if after["size"].(float64) != 0 {
		t.Errorf("cache size after clear = %v, want 0", after["size"])
	}
}
