// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

const (
	FamilyClaude    = config.FamilyClaude
	FamilyAI21      = config.FamilyAI21
	FamilyOpenAI    = config.FamilyOpenAI
	FamilyAnthropic = config.FamilyAnthropic
)

// Deps 构造模型客户端所需的外部依赖
type Deps struct {
	Bedrock InvokeModelAPI // claude / ai21 使用
	APIKey  string         // openai / anthropic 使用
	BaseURL string
}

// RoleDefaults 某角色在模型族下的默认模型与解码参数
type RoleDefaults struct {
	Model     string
	MaxTokens int
}

// Family 模型族：两个角色的默认值与客户端构造方法
type Family struct {
	Condense RoleDefaults
	Answer   RoleDefaults
	New      func(ctx context.Context, model string, deps Deps) (Client, error)
}

var (
	familyRegistry = map[string]Family{
		FamilyClaude: {
			Condense: RoleDefaults{Model: "anthropic.claude-instant-v1", MaxTokens: 300},
			Answer:   RoleDefaults{Model: "anthropic.claude-v2:1", MaxTokens: 500},
			New: func(_ context.Context, model string, deps Deps) (Client, error) {
				return NewClaudeClient(deps.Bedrock, model)
			},
		},
		FamilyAI21: {
			Condense: RoleDefaults{Model: "ai21.j2-mid-v1", MaxTokens: 300},
			Answer:   RoleDefaults{Model: "ai21.j2-ultra-v1", MaxTokens: 500},
			New: func(_ context.Context, model string, deps Deps) (Client, error) {
				return NewAI21Client(deps.Bedrock, model)
			},
		},
		FamilyOpenAI: {
			Condense: RoleDefaults{Model: "gpt-4o-mini", MaxTokens: 300},
			Answer:   RoleDefaults{Model: "gpt-4o-mini", MaxTokens: 500},
			New: func(ctx context.Context, model string, deps Deps) (Client, error) {
				return NewOpenAIClient(ctx, model, deps.APIKey, deps.BaseURL)
			},
		},
		FamilyAnthropic: {
			Condense: RoleDefaults{Model: "claude-3-5-haiku-latest", MaxTokens: 300},
			Answer:   RoleDefaults{Model: "claude-3-5-sonnet-latest", MaxTokens: 500},
			New: func(_ context.Context, model string, deps Deps) (Client, error) {
				return NewAnthropicClient(model, deps.APIKey, deps.BaseURL)
			},
		},
	}
	familyMu sync.RWMutex
)

// RegisterFamily 注册（或覆盖）模型族
func RegisterFamily(name string, f Family) {
	familyMu.Lock()
	defer familyMu.Unlock()
	familyRegistry[name] = f
}

// GetFamily 按名称获取模型族
func GetFamily(name string) (Family, error) {
	familyMu.RLock()
	defer familyMu.RUnlock()
	f, ok := familyRegistry[name]
	if !ok {
		return Family{}, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
	}
	return f, nil
}

// ListFamilies 返回已注册的模型族名称（有序）
func ListFamilies() []string {
	familyMu.RLock()
	defer familyMu.RUnlock()
	names := make([]string, 0, len(familyRegistry))
	for name := range familyRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoleClientOptions 组装角色客户端时的横切参数
type RoleClientOptions struct {
	CallTimeout time.Duration
	MaxRetries  int
	Limiter     *LLMRateLimiter
}

// NewRoleClients 按配置构造 condense 与 answer 两个角色客户端。
// 每个客户端由内向外依次包装限流与单次超时/重试。
func NewRoleClients(ctx context.Context, cfg config.ModelConfig, deps Deps, opts RoleClientOptions) (condense, answer *RoleClient, err error) {
	family, err := GetFamily(cfg.Family)
	if err != nil {
		return nil, nil, err
	}
	if deps.APIKey == "" {
		deps.APIKey = cfg.APIKey
	}
	if deps.BaseURL == "" {
		deps.BaseURL = cfg.BaseURL
	}

	condense, err = newRoleClient(ctx, family, RoleCondense, family.Condense, cfg.Condense, deps, opts)
	if err != nil {
		return nil, nil, err
	}
	answer, err = newRoleClient(ctx, family, RoleAnswer, family.Answer, cfg.Answer, deps, opts)
	if err != nil {
		return nil, nil, err
	}
	return condense, answer, nil
}

func newRoleClient(ctx context.Context, family Family, role Role, defaults RoleDefaults, rc config.ModelRoleConfig, deps Deps, opts RoleClientOptions) (*RoleClient, error) {
	model := rc.ID
	if model == "" {
		model = defaults.Model
	}
	maxTokens := rc.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaults.MaxTokens
	}

	base, err := family.New(ctx, model, deps)
	if err != nil {
		return nil, fmt.Errorf("创建 %s 模型客户端失败: %w", role, err)
	}
	var c Client = base
	if opts.Limiter != nil {
		c = NewRateLimitedClient(c, opts.Limiter)
	}
	c = NewGuardedClient(c, opts.CallTimeout, opts.MaxRetries)

	return &RoleClient{
		Client: c,
		Role:   role,
		Options: GenerateOptions{
			Temperature: rc.Temperature,
			MaxTokens:   maxTokens,
			NumResults:  1,
		},
	}, nil
}
