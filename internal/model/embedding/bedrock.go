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

package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	einoembed "github.com/cloudwego/eino/components/embedding"
)

// DefaultTitanModel Bedrock Titan 文本向量模型
const DefaultTitanModel = "amazon.titan-embed-text-v1"

// InvokeModelAPI bedrockruntime.Client 中用到的方法
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// TitanEmbedder 通过 Bedrock InvokeModel 调用 Titan，实现 eino embedding.Embedder
type TitanEmbedder struct {
	api   InvokeModelAPI
	model string
}

var _ einoembed.Embedder = (*TitanEmbedder)(nil)

// NewTitanEmbedder 创建 Titan Embedder；model 为空时使用 DefaultTitanModel
func NewTitanEmbedder(api InvokeModelAPI, model string) (*TitanEmbedder, error) {
	if api == nil {
		return nil, fmt.Errorf("bedrock runtime client is nil")
	}
	if model == "" {
		model = DefaultTitanModel
	}
	return &TitanEmbedder{api: api, model: model}, nil
}

// Model 返回模型名称
func (e *TitanEmbedder) Model() string {
	return e.model
}

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// EmbedStrings Titan 每次请求只接受一段文本，逐条调用
func (e *TitanEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		body, err := json.Marshal(titanRequest{InputText: text})
		if err != nil {
			return nil, err
		}
		resp, err := e.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(e.model),
			Body:        body,
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
		})
		if err != nil {
			return nil, fmt.Errorf("调用 Bedrock %s 失败: %w", e.model, err)
		}
		var tr titanResponse
		if err := json.Unmarshal(resp.Body, &tr); err != nil {
			return nil, fmt.Errorf("解析 Bedrock %s 响应失败: %w", e.model, err)
		}
		if len(tr.Embedding) == 0 {
			return nil, fmt.Errorf("bedrock %s returned empty embedding", e.model)
		}
		out[i] = tr.Embedding
	}
	return out, nil
}
