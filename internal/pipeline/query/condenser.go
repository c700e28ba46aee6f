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

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/model/llm"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/prompt"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/runtime/session"
)

// Condenser 结合对话历史把用户输入改写为独立问题
type Condenser struct {
	client  *llm.RoleClient
	prompts *prompt.Store
}

// NewCondenser 创建 Condenser
func NewCondenser(client *llm.RoleClient, prompts *prompt.Store) (*Condenser, error) {
	if client == nil {
		return nil, fmt.Errorf("condenser requires a model client")
	}
	if prompts == nil {
		prompts = prompt.NewStore()
	}
	return &Condenser{client: client, prompts: prompts}, nil
}

// Condense 渲染改写模板并调用改写模型，返回去除首尾空白的问题
func (c *Condenser) Condense(ctx context.Context, history session.ChatHistory, question string) (string, error) {
	p, err := c.prompts.Render(ctx, prompt.Condense, map[string]any{
		prompt.VarChatHistory: prompt.FormatHistory(history),
		prompt.VarQuestion:    question,
	})
	if err != nil {
		return "", err
	}
	out, err := c.client.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
