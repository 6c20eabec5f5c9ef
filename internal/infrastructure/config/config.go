package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	OpenRouter   OpenRouterConfig   `mapstructure:"openrouter"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Validator    ValidatorConfig    `mapstructure:"validator"`
	Cache        CacheConfig        `mapstructure:"cache"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	LogLevel     string             `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig 主要供應商（OpenRouter）配置
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GeminiConfig 備援供應商（Gemini）配置
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OrchestratorConfig 編排器配置
type OrchestratorConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	QualityThreshold float64       `mapstructure:"quality_threshold"`
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout"`
	EnableVariation  bool          `mapstructure:"enable_variation"`
}

// ValidatorConfig 驗證器配置
type ValidatorConfig struct {
	QualityThreshold float64 `mapstructure:"quality_threshold"`
}

// CacheConfig 緩存配置
// Backend 為 memory 時不設 TTL、不淘汰（行程存活期內首次寫入有效）；
// redis 後端則以 TTL 控制成長
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini.model", "GEMINI_MODEL")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.addr", "CACHE_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")), "openrouter_model:", viper.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "nutriplan-ai")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	viper.SetDefault("openrouter.model", "qwen/qwen2.5-72b-instruct:free")
	viper.SetDefault("openrouter.max_tokens", 2048)
	viper.SetDefault("openrouter.timeout", "60s")

	// Gemini 設定（備援）
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", "60s")

	// 編排器設定
	viper.SetDefault("orchestrator.max_retries", 3)
	viper.SetDefault("orchestrator.quality_threshold", 70)
	viper.SetDefault("orchestrator.attempt_timeout", "30s")
	viper.SetDefault("orchestrator.enable_variation", true)

	// 驗證器設定
	viper.SetDefault("validator.quality_threshold", 70)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "24h")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重設定
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證編排器設定
	if config.Orchestrator.MaxRetries <= 0 {
		return fmt.Errorf("invalid orchestrator max retries")
	}
	if config.Orchestrator.QualityThreshold < 0 || config.Orchestrator.QualityThreshold > 100 {
		return fmt.Errorf("invalid orchestrator quality threshold")
	}
	if config.Orchestrator.AttemptTimeout <= 0 {
		return fmt.Errorf("invalid orchestrator attempt timeout")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
		case "redis":
			if config.Cache.Addr == "" {
				return fmt.Errorf("cache addr is required for redis backend")
			}
			if config.Cache.TTL <= 0 {
				return fmt.Errorf("invalid cache ttl")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
	}

	return nil
}
