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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

// LLMLimitConfig 单个模型族的限流配置（rate_limits.llm.<family>）
type LLMLimitConfig = config.LLMRateLimitConfig

// defaultLLMLimit 未配置的模型族使用的限额
var defaultLLMLimit = LLMLimitConfig{
	TokensPerMinute:   200000,
	RequestsPerMinute: 100,
	MaxConcurrent:     10,
}

// LLMRateLimiter 按模型族限流：请求速率、token 预算、并发数
type LLMRateLimiter struct {
	mu       sync.Mutex
	families map[string]*familyLimiter
	defaults LLMLimitConfig
}

type familyLimiter struct {
	requests *rate.Limiter
	tokens   *rate.Limiter
	slots    chan struct{}

	mu          sync.Mutex
	windowStart time.Time
	windowUsed  int
}

// NewLLMRateLimiter 创建限流器；defaults 为 nil 时使用内置限额
func NewLLMRateLimiter(configs map[string]LLMLimitConfig, defaults *LLMLimitConfig) *LLMRateLimiter {
	l := &LLMRateLimiter{families: make(map[string]*familyLimiter), defaults: defaultLLMLimit}
	if defaults != nil {
		l.defaults = *defaults
	}
	for family, cfg := range configs {
		l.families[family] = newFamilyLimiter(cfg)
	}
	return l
}

// perSecond 把每分钟限额换算为 rate.Limiter，burst 取 2 秒配额且至少为 1
func perSecond(perMinute float64) *rate.Limiter {
	burst := int(perMinute / 30)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}

func newFamilyLimiter(cfg LLMLimitConfig) *familyLimiter {
	f := &familyLimiter{windowStart: time.Now()}
	if cfg.RequestsPerMinute > 0 {
		f.requests = perSecond(cfg.RequestsPerMinute)
	}
	if cfg.TokensPerMinute > 0 {
		f.tokens = perSecond(float64(cfg.TokensPerMinute))
	}
	if cfg.MaxConcurrent > 0 {
		f.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return f
}

func (l *LLMRateLimiter) family(name string, create bool) *familyLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.families[name]
	if !ok && create {
		f = newFamilyLimiter(l.defaults)
		l.families[name] = f
	}
	return f
}

// Wait 阻塞直到允许发起一次调用；成功后必须调用 Release
func (l *LLMRateLimiter) Wait(ctx context.Context, family string, estimatedTokens int) error {
	f := l.family(family, true)
	if f.requests != nil {
		if err := f.requests.Wait(ctx); err != nil {
			return fmt.Errorf("等待 %s 请求配额: %w", family, err)
		}
	}
	if f.tokens != nil && estimatedTokens > 0 {
		// 超过 burst 的请求按 burst 扣减，否则 WaitN 直接报错
		n := min(estimatedTokens, f.tokens.Burst())
		if err := f.tokens.WaitN(ctx, n); err != nil {
			return fmt.Errorf("等待 %s token 配额: %w", family, err)
		}
	}
	if f.slots != nil {
		select {
		case f.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.account(estimatedTokens)
	return nil
}

// Release 归还并发槽位
func (l *LLMRateLimiter) Release(family string) {
	f := l.family(family, false)
	if f == nil || f.slots == nil {
		return
	}
	select {
	case <-f.slots:
	default:
	}
}

// RecordTokenUsage 计入响应消耗的 token
func (l *LLMRateLimiter) RecordTokenUsage(family string, tokens int) {
	if f := l.family(family, false); f != nil {
		f.account(tokens)
	}
}

// TokensUsed 当前一分钟窗口内计入的 token 数
func (l *LLMRateLimiter) TokensUsed(family string) int {
	f := l.family(family, false)
	if f == nil {
		return 0
	}
	return f.account(0)
}

// account 累加 token 并返回当前窗口用量；窗口满一分钟后清零
func (f *familyLimiter) account(tokens int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if now := time.Now(); now.Sub(f.windowStart) > time.Minute {
		f.windowStart = now
		f.windowUsed = 0
	}
	f.windowUsed += tokens
	return f.windowUsed
}
