package mealplan

import (
	"context"
	"fmt"
	"time"

	"nutriplan-ai/internal/core/ai/cache"
	"nutriplan-ai/internal/pkg/common"

	"go.uber.org/zap"
)

// RelaxedThreshold 末次嘗試的放寬接受門檻
const RelaxedThreshold = 50

// Options 編排選項
type Options struct {
	MaxRetries       int
	QualityThreshold float64
	AttemptTimeout   time.Duration
	EnableVariation  bool
}

// DefaultOptions 預設編排選項
func DefaultOptions() Options {
	return Options{
		MaxRetries:       3,
		QualityThreshold: DefaultQualityThreshold,
		AttemptTimeout:   30 * time.Second,
		EnableVariation:  true,
	}
}

// normalize 補齊零值選項
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MaxRetries <= 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = def.QualityThreshold
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = def.AttemptTimeout
	}
	return o
}

// GenerationClient 生成客戶端介面，便於注入測試替身
type GenerationClient interface {
	Generate(ctx context.Context, req *common.RecipeRequest) (*common.AIRecipeResponse, error)
}

// Orchestrator 對單次生成包上有界重試、逐次超時與品質門檻
// 依呼叫脈絡建構並注入依賴，不使用套件級單例
type Orchestrator struct {
	client    GenerationClient
	cache     cache.Store
	validator *Validator
	opts      Options
}

// NewOrchestrator 創建編排器；store 可為 nil（停用快取）
func NewOrchestrator(client GenerationClient, store cache.Store, validator *Validator, opts Options) *Orchestrator {
	if validator == nil {
		validator = NewValidator(opts.QualityThreshold)
	}
	return &Orchestrator{
		client:    client,
		cache:     store,
		validator: validator,
		opts:      opts.normalize(),
	}
}

// candidate 一次嘗試產生的候選結果
type candidate struct {
	response   *common.AIRecipeResponse
	validation *common.ValidationResult
}

// Orchestrate 執行一次完整的編排呼叫
// 回傳值保證：Success 為 true 時 Recipe 非 nil 且分數達門檻（或末次放寬門檻）；
// Success 為 false 時 Recipe 為 nil 且 Errors 至少一筆；Attempts 介於 1 與 MaxRetries
func (o *Orchestrator) Orchestrate(ctx context.Context, req *common.RecipeRequest) *common.OrchestrationResult {
	start := time.Now()
	result := &common.OrchestrationResult{
		Errors: []string{},
	}

	originalFP := cache.Fingerprint(req)
	current := req
	var accepted *candidate
	var best *candidate

	for attempt := 1; attempt <= o.opts.MaxRetries; attempt++ {
		result.Attempts = attempt

		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("attempt %d: %v", attempt, ctx.Err()))
			break
		}

		resp, cacheHit, err := o.attempt(ctx, current, attempt)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("attempt %d: %v", attempt, err))
			common.LogWarn("生成嘗試失敗",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		// 一律以原始請求脈絡驗證，變異只影響生成方向
		validation := o.validator.ValidateRecipe(resp.Recipe, req)
		resp.Recipe.CompatibilityScore = validation.Score
		cand := &candidate{response: resp, validation: validation}

		if best == nil || validation.Score > best.validation.Score {
			best = cand
		}

		common.LogInfo("生成嘗試完成",
			zap.Int("attempt", attempt),
			zap.Bool("cache_hit", cacheHit),
			zap.Float64("score", validation.Score),
			zap.Bool("is_valid", validation.IsValid),
		)

		if validation.IsValid && resp.Recipe.CompatibilityScore >= o.opts.QualityThreshold {
			accepted = cand
			break
		}

		result.Errors = append(result.Errors, fmt.Sprintf(
			"attempt %d: recipe rejected (score %.0f, threshold %.0f)", attempt, validation.Score, o.opts.QualityThreshold))

		// 下一次嘗試前變異請求，避免重複同樣的低品質結果
		if o.opts.EnableVariation && attempt < o.opts.MaxRetries {
			current = DeriveVariedRequest(req, resp.Recipe, attempt)
		}
	}

	// 末次放寬：沒有達標結果時，接受分數達放寬門檻的最佳候選
	if accepted == nil && best != nil && !best.validation.HasErrors() && best.validation.Score >= RelaxedThreshold {
		common.LogWarn("以放寬門檻接受最佳候選",
			zap.Float64("score", best.validation.Score),
			zap.Float64("relaxed_threshold", RelaxedThreshold),
		)
		accepted = best
	}

	result.Elapsed = time.Since(start)

	if accepted == nil {
		if best != nil {
			qErr := &common.QualityError{
				Attempts:  result.Attempts,
				BestScore: best.validation.Score,
				Threshold: o.opts.QualityThreshold,
			}
			result.Errors = append(result.Errors, qErr.Error())
		}
		result.Success = false
		result.Recipe = nil
		return result
	}

	// 以原始（未變異）指紋寫入快取，讓後續相同請求直接命中
	if o.cache != nil {
		if err := o.cache.Put(ctx, originalFP, accepted.response); err != nil {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}

	result.Success = true
	result.Recipe = accepted.response.Recipe
	result.QualityScore = accepted.validation.Score
	return result
}

// Validator 回傳使用中的驗證器，供獨立驗證操作共用
func (o *Orchestrator) Validator() *Validator {
	return o.validator
}

// attempt 執行單次嘗試：先查快取，未命中才發出受時限約束的生成呼叫
func (o *Orchestrator) attempt(ctx context.Context, req *common.RecipeRequest, attempt int) (*common.AIRecipeResponse, bool, error) {
	if o.cache != nil {
		fp := cache.Fingerprint(req)
		if cached, err := o.cache.Get(ctx, fp); err == nil && cached != nil && cached.Recipe != nil {
			// 快取回應共享條目本身，複製後再交給驗證與呼叫端
			cp := *cached
			recipe := *cached.Recipe
			cp.Recipe = &recipe
			return &cp, true, nil
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.opts.AttemptTimeout)
	defer cancel()

	resp, err := o.client.Generate(attemptCtx, req)
	if err != nil {
		// 超時與供應商錯誤同等計為失敗嘗試，不搶救部分回應
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, false, &common.TimeoutError{Attempt: attempt, Limit: o.opts.AttemptTimeout.String()}
		}
		return nil, false, err
	}
	if resp == nil || resp.Recipe == nil {
		return nil, false, &common.ParseError{Reason: "provider returned empty result"}
	}
	return resp, false, nil
}
