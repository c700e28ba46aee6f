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
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/metrics"
)

// GuardedClient 为每次调用加单次超时，并在失败后按固定间隔最多重试 maxRetries 次。
// 外层 ctx 已取消或超时时不再重试。
type GuardedClient struct {
	inner      Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// NewGuardedClient 创建 GuardedClient；timeout<=0 表示不加单次超时
func NewGuardedClient(inner Client, timeout time.Duration, maxRetries int) *GuardedClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GuardedClient{inner: inner, timeout: timeout, maxRetries: maxRetries, backoff: 200 * time.Millisecond}
}

// GenerateWithContext 实现 Client.GenerateWithContext；返回最后一次调用的错误
func (c *GuardedClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	var (
		out     string
		lastErr error
	)
	op := func() error {
		text, err := c.once(ctx, prompt, options)
		if err == nil {
			metrics.LLMRequestTotal.WithLabelValues(c.inner.Provider(), "ok").Inc()
			metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(estimateTokens(prompt, 0)))
			metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(estimateTokens(text, 0)))
			out = text
			return nil
		}
		metrics.LLMRequestTotal.WithLabelValues(c.inner.Provider(), "error").Inc()
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, ErrEmptyCompletion) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		// 等待重试期间 ctx 结束时 Retry 返回 ctx.Err()，此处保留真实的调用错误
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}
	return out, nil
}

func (c *GuardedClient) once(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.inner.GenerateWithContext(ctx, prompt, options)
}

// Model 返回底层 Client 的模型名称
func (c *GuardedClient) Model() string { return c.inner.Model() }

// Provider 返回底层 Client 的提供商名称
func (c *GuardedClient) Provider() string { return c.inner.Provider() }
