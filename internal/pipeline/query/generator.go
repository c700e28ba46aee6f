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

package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/model/llm"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/prompt"
)

// Generator 基于检索到的文档生成回答
type Generator struct {
	client  *llm.RoleClient
	prompts *prompt.Store
}

// NewGenerator 创建新的生成器
func NewGenerator(client *llm.RoleClient, prompts *prompt.Store) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("generator requires a model client")
	}
	if prompts == nil {
		prompts = prompt.NewStore()
	}
	return &Generator{client: client, prompts: prompts}, nil
}

// Answer 渲染回答模板并调用回答模型
func (g *Generator) Answer(ctx context.Context, question string, docs []*schema.Document) (string, error) {
	p, err := g.prompts.Render(ctx, prompt.Answer, map[string]any{
		prompt.VarContext:  prompt.FormatDocuments(docs),
		prompt.VarQuestion: question,
	})
	if err != nil {
		return "", err
	}
	out, err := g.client.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
