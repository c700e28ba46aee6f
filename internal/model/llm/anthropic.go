package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// AnthropicClient 直连 Anthropic Messages API 的客户端（不经 Bedrock）
type AnthropicClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

// NewAnthropicClient 创建新的 Anthropic 客户端；重试由 GuardedClient 统一负责
func NewAnthropicClient(model, apiKey, baseURL string) (*AnthropicClient, error) {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
		if envURL := os.Getenv("ANTHROPIC_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &AnthropicClient{
		model:   model,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

// GenerateWithContext 使用上下文生成文本
func (c *AnthropicClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	request := map[string]interface{}{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": strings.TrimSpace(prompt)}},
		"temperature": options.Temperature,
		"max_tokens":  maxTokens,
	}
	if len(options.Stop) > 0 {
		request["stop_sequences"] = options.Stop
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(request).
		SetResult(&result).
		Post(c.baseURL + "/messages")
	if err != nil {
		return "", fmt.Errorf("调用 Anthropic API 失败: %w", err)
	}

	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Anthropic API 返回错误: %d %s", response.StatusCode(), response.String())
	}

	var b strings.Builder
	for _, part := range result.Content {
		if part.Type == "" || part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}

// Model 返回模型名称
func (c *AnthropicClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *AnthropicClient) Provider() string {
	return FamilyAnthropic
}
