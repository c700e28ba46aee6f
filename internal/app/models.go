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

package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/kendra"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/model/embedding"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/model/llm"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

// Clients 外部服务客户端；测试时可直接注入桩实现
type Clients struct {
	Kendra  query.KendraRetrieveAPI
	Bedrock llm.InvokeModelAPI
}

// kendraRetryMaxAttempts Kendra 调用总尝试次数（含首次）
const kendraRetryMaxAttempts = 2

// NewClientsFromConfig 按配置创建 AWS 客户端。只创建当前配置会用到的客户端，
// 不使用 Bedrock 的组合（openai/anthropic + kendra）不要求 Bedrock 权限。
func NewClientsFromConfig(ctx context.Context, cfg *config.Config) (Clients, error) {
	if !needsKendra(cfg) && !needsBedrock(cfg) {
		return Clients{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWS.Region),
		awsconfig.WithRetryMaxAttempts(kendraRetryMaxAttempts),
	)
	if err != nil {
		return Clients{}, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	var clients Clients
	if needsKendra(cfg) {
		clients.Kendra = newKendraClient(awsCfg, cfg.Retrieval.Endpoint)
	}
	if needsBedrock(cfg) {
		endpoint := cfg.Model.Endpoint
		if endpoint == "" && cfg.AWS.Region != "" {
			endpoint = llm.BedrockEndpoint(cfg.AWS.Region)
		}
		clients.Bedrock = llm.NewBedrockRuntime(awsCfg, endpoint)
	}
	return clients, nil
}

func newKendraClient(awsCfg aws.Config, endpoint string) *kendra.Client {
	return kendra.NewFromConfig(awsCfg, func(o *kendra.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// needsKendra retrieval.type=kendra 时需要 Kendra 客户端
func needsKendra(cfg *config.Config) bool {
	t := cfg.Retrieval.Type
	return t == "" || t == config.RetrievalKendra
}

// needsBedrock Bedrock 模型族或向量检索（Titan embedding）需要 Bedrock runtime
func needsBedrock(cfg *config.Config) bool {
	switch cfg.Model.Family {
	case config.FamilyClaude, config.FamilyAI21, "":
		return true
	}
	return !needsKendra(cfg)
}

// NewEmbedderFromConfig 创建向量检索使用的 Titan Embedder；kendra 检索时返回 nil
func NewEmbedderFromConfig(cfg *config.Config, api llm.InvokeModelAPI) (*embedding.TitanEmbedder, error) {
	if needsKendra(cfg) {
		return nil, nil
	}
	if api == nil {
		return nil, fmt.Errorf("retrieval type %q 需要 Bedrock runtime 生成向量", cfg.Retrieval.Type)
	}
	return embedding.NewTitanEmbedder(api, cfg.Model.Embedding.ID)
}

var _ embedding.InvokeModelAPI = (*bedrockruntime.Client)(nil)
