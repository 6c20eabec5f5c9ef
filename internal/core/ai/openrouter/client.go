package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nutriplan-ai/internal/core/ai/provider"
	"nutriplan-ai/internal/infrastructure/config"
	"nutriplan-ai/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	baseURL = "https://openrouter.ai/api/v1"
)

// Client OpenRouter API 客戶端（主要供應商）
type Client struct {
	httpClient *http.Client
	config     *config.OpenRouterConfig
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	TopP           float64         `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat 回應格式提示，要求模型只輸出 JSON
type ResponseFormat struct {
	Type string `json:"type"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message Message `json:"message"`
}

// Usage 使用量信息
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error 表示 API 錯誤
type Error struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg *config.OpenRouterConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: cfg,
	}
}

// Name 回傳供應商名稱
func (c *Client) Name() string {
	return "openrouter"
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, genReq *provider.Request) (*provider.Response, error) {
	// 構建請求
	req := &Request{
		Model:       c.config.Model,
		MaxTokens:   genReq.MaxTokens,
		Temperature: genReq.Temperature,
		TopP:        0.9,
		ResponseFormat: &ResponseFormat{
			Type: "json_object",
		},
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.config.MaxTokens
	}
	if genReq.System != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: genReq.System})
	}
	req.Messages = append(req.Messages, Message{Role: "user", Content: genReq.Prompt})

	// 準備請求體
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// 創建 HTTP 請求
	httpReq, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 設置請求頭
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("HTTP-Referer", "https://nutriplan.app")
	httpReq.Header.Set("X-Title", "NutriPlan AI")

	// 發送請求
	common.LogInfo("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("prompt_length", len(genReq.Prompt)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		common.LogError("Failed to send request to AI service",
			zap.Error(err),
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// 讀取響應體
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		common.LogError("Failed to read response body",
			zap.Error(err),
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// 檢查 HTTP 狀態碼
	if resp.StatusCode != http.StatusOK {
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("AI service error (status %d): %s", resp.StatusCode, truncate(string(body), 500))
	}

	// 解析響應
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		common.LogError("Failed to parse AI service response",
			zap.Error(err),
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// 檢查響應內容
	if len(response.Choices) == 0 {
		common.LogError("Empty choices in AI service response",
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("empty choices in response")
	}

	// 檢查消息內容
	content := response.Choices[0].Message.Content
	if len(content) == 0 {
		common.LogError("Empty content in AI service response",
			zap.String("model", req.Model),
		)
		return nil, fmt.Errorf("empty content in response")
	}

	// 記錄成功響應
	common.LogInfo("Successfully generated response from AI service",
		zap.String("model", req.Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", response.Usage.TotalTokens),
	)

	return &provider.Response{
		Content: content,
		Usage: provider.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		},
	}, nil
}

// truncate 截斷過長的錯誤回應內容
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
