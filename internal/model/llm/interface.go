package llm

import (
	"context"
	"errors"
)

// Client LLM 客户端接口：渲染好的 prompt 进，生成文本出
type Client interface {
	// GenerateWithContext 使用上下文生成文本
	GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	NumResults  int      `json:"num_results"` // 仅 AI21 使用
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop"`
}

// Role 模型在对话链中的角色
type Role string

const (
	RoleCondense Role = "condense"
	RoleAnswer   Role = "answer"
)

var (
	// ErrEmptyCompletion 模型返回空结果
	ErrEmptyCompletion = errors.New("model returned empty completion")
	// ErrUnknownFamily 未注册的模型族
	ErrUnknownFamily = errors.New("unknown model family")
)

// RoleClient 绑定了角色默认解码参数的 Client
type RoleClient struct {
	Client
	Role    Role
	Options GenerateOptions
}

// Generate 使用角色默认参数生成
func (c *RoleClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWithContext(ctx, prompt, c.Options)
}
