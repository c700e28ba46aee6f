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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// InvokeModelAPI bedrockruntime.Client 中用到的方法，便于测试替换
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// bodyCodec 负责某一模型族的请求体编码与响应解析
type bodyCodec interface {
	Encode(prompt string, options GenerateOptions) ([]byte, error)
	Decode(body []byte) (string, error)
}

// BedrockClient 通过 Bedrock InvokeModel 调用文本生成模型
type BedrockClient struct {
	provider string
	model    string
	api      InvokeModelAPI
	codec    bodyCodec
}

func newBedrockClient(api InvokeModelAPI, provider, model string, codec bodyCodec) (*BedrockClient, error) {
	if api == nil {
		return nil, fmt.Errorf("bedrock runtime client is nil")
	}
	if model == "" {
		return nil, fmt.Errorf("bedrock model id is required")
	}
	return &BedrockClient{provider: provider, model: model, api: api, codec: codec}, nil
}

// GenerateWithContext 使用上下文生成文本
func (c *BedrockClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	body, err := c.codec.Encode(prompt, options)
	if err != nil {
		return "", fmt.Errorf("编码 %s 请求失败: %w", c.provider, err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("调用 Bedrock %s 失败: %w", c.model, err)
	}

	text, err := c.codec.Decode(out.Body)
	if err != nil {
		return "", fmt.Errorf("解析 Bedrock %s 响应失败: %w", c.model, err)
	}
	return text, nil
}

// Model 返回模型名称
func (c *BedrockClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *BedrockClient) Provider() string {
	return c.provider
}

// BedrockEndpoint 按区域推导 Bedrock runtime endpoint
func BedrockEndpoint(region string) string {
	return "https://bedrock-runtime." + region + ".amazonaws.com"
}

// NewBedrockRuntime 创建 bedrockruntime.Client；endpoint 为空时使用 SDK 默认解析。
// SDK 层不重试，重试由 GuardedClient 负责。
func NewBedrockRuntime(cfg aws.Config, endpoint string) *bedrockruntime.Client {
	return bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
