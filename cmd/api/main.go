package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriplan-ai/internal/api"
	"nutriplan-ai/internal/core/ai/cache"
	"nutriplan-ai/internal/core/ai/gemini"
	"nutriplan-ai/internal/core/ai/generation"
	"nutriplan-ai/internal/core/ai/openrouter"
	"nutriplan-ai/internal/core/ai/provider"
	"nutriplan-ai/internal/core/mealplan"
	"nutriplan-ai/internal/infrastructure/config"
	"nutriplan-ai/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 加載配置
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日誌
	if err := common.InitLogger(cfg.App.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("啟動應用",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 初始化快取後端
	store, err := buildCacheStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache store", zap.Error(err))
	}

	// 初始化 AI 供應商（OpenRouter 為主、Gemini 為備援）
	primary := openrouter.NewClient(&cfg.OpenRouter)
	var secondary provider.Provider
	if cfg.Gemini.APIKey != "" {
		secondary = gemini.NewClient(&cfg.Gemini)
	} else {
		common.LogWarn("Gemini API key not set, fallback provider disabled")
	}

	client := generation.NewClient(primary, secondary)

	// 初始化管線服務
	opts := mealplan.Options{
		MaxRetries:       cfg.Orchestrator.MaxRetries,
		QualityThreshold: cfg.Orchestrator.QualityThreshold,
		AttemptTimeout:   cfg.Orchestrator.AttemptTimeout,
		EnableVariation:  cfg.Orchestrator.EnableVariation,
	}
	validator := mealplan.NewValidator(cfg.Validator.QualityThreshold)
	service := mealplan.NewService(client, store, validator, opts)

	// 設置路由
	router := api.SetupRouter(cfg, service, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 優雅關閉
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			common.LogError("Failed to close cache store", zap.Error(err))
		}
	}
	primary.Close()

	common.LogInfo("Server exited")
}

// buildCacheStore 依配置選擇快取後端；停用時回傳 nil，管線會略過快取
func buildCacheStore(cfg *config.Config) (cache.Store, error) {
	if !cfg.Cache.Enabled {
		common.LogWarn("Cache disabled, every request will hit the AI provider")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.TTL)
	default:
		return cache.NewMemoryStore(), nil
	}
}
