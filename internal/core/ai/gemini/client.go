package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nutriplan-ai/internal/core/ai/provider"
	"nutriplan-ai/internal/infrastructure/config"
	"nutriplan-ai/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client Gemini generateContent 客戶端（備援供應商）
type Client struct {
	config *config.GeminiConfig
	client *resty.Client
}

// generateRequest Gemini 請求結構
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// generateResponse Gemini 響應結構
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewClient 創建 Gemini 客戶端
func NewClient(cfg *config.GeminiConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Name 回傳供應商名稱
func (c *Client) Name() string {
	return "gemini"
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, genReq *provider.Request) (*provider.Response, error) {
	// Gemini 無獨立 system 欄位，併入 prompt 開頭
	prompt := genReq.Prompt
	if genReq.System != "" {
		prompt = genReq.System + "\n\n" + prompt
	}

	// 構建請求
	req := &generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			MaxOutputTokens:  genReq.MaxTokens,
			Temperature:      genReq.Temperature,
			ResponseMimeType: "application/json",
		},
	}

	common.LogInfo("Sending request to Gemini",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	// 發送請求
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.config.APIKey).
		SetBody(req).
		Post(fmt.Sprintf("/%s:generateContent", c.config.Model))

	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("Gemini returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.config.Model),
		)
		return nil, fmt.Errorf("Gemini API returned error (status %d)", resp.StatusCode())
	}

	// 解析回應
	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("empty content in Gemini response")
	}

	common.LogInfo("Successfully generated response from Gemini",
		zap.String("model", c.config.Model),
		zap.Int("content_length", len(text)),
	)

	return &provider.Response{
		Content: text,
		Usage: provider.Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
	}, nil
}
