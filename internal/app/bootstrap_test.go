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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

// stubBedrock Titan 请求按关键词返回向量，其余请求返回固定 Claude 补全
type stubBedrock struct {
	mu      sync.Mutex
	prompts []string
}

func (s *stubBedrock) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	model := aws.ToString(params.ModelId)
	if strings.HasPrefix(model, "amazon.titan") {
		var req struct {
			InputText string `json:"inputText"`
		}
		if err := json.Unmarshal(params.Body, &req); err != nil {
			return nil, err
		}
		vec := []float64{0.1, 1}
		if strings.Contains(strings.ToLower(req.InputText), "refund") {
			vec = []float64{1, 0}
		}
		body, _ := json.Marshal(map[string]any{"embedding": vec})
		return &bedrockruntime.InvokeModelOutput{Body: body}, nil
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(params.Body, &req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"completion":" Refunds are issued within 30 days.","stop_reason":"stop_sequence"}`)}, nil
}

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	data := `[
  {"title": "Refund Policy", "content": "Refunds are issued within 30 days of purchase."},
  {"title": "Shipping", "content": "Orders ship in two business days."}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AWS: config.AWSConfig{Region: "us-east-1"},
		Retrieval: config.RetrievalConfig{
			Type:     config.RetrievalMemory,
			TopK:     3,
			SeedFile: writeSeed(t),
		},
		Model: config.ModelConfig{
			Family:     config.FamilyClaude,
			MaxRetries: 1,
			Condense:   config.ModelRoleConfig{Temperature: 0.7},
			Answer:     config.ModelRoleConfig{Temperature: 0.7},
		},
		History: config.HistoryConfig{MaxTurns: 3, AppendEmptyInput: true},
		Log:     config.LogConfig{Level: "error"},
	}
}

func TestBootstrap_EndToEnd(t *testing.T) {
	ctx := context.Background()
	stub := &stubBedrock{}
	b, err := NewBootstrapWithClients(ctx, testConfig(t), Clients{Bedrock: stub})
	require.NoError(t, err)
	defer b.Close()

	resp, err := b.LexHandler.Handle(ctx, &lex.Event{
		SessionID:       "sess-1",
		InputTranscript: "What is the refund policy?",
		SessionState: lex.SessionState{
			Intent: lex.NamedIntent("FallbackIntent"),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Refunds are issued within 30 days.", resp.Messages[0].Content)
	assert.Equal(t, lex.IntentFulfilled, resp.SessionState.Intent.State())
	assert.Contains(t, resp.SessionState.SessionAttributes["chat_history"], "What is the refund policy?")

	// 首轮无历史，只调用一次回答模型，且 context 中只有退款段落
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Refunds are issued within 30 days of purchase.")
	assert.NotContains(t, stub.prompts[0], "Orders ship")
}

func TestBootstrap_SecondTurnCondenses(t *testing.T) {
	ctx := context.Background()
	stub := &stubBedrock{}
	b, err := NewBootstrapWithClients(ctx, testConfig(t), Clients{Bedrock: stub})
	require.NoError(t, err)
	defer b.Close()

	first, err := b.LexHandler.Handle(ctx, &lex.Event{
		SessionID:       "sess-1",
		InputTranscript: "What is the refund policy?",
		SessionState:    lex.SessionState{Intent: lex.NamedIntent("FallbackIntent")},
	})
	require.NoError(t, err)

	_, err = b.LexHandler.Handle(ctx, &lex.Event{
		SessionID:       "sess-1",
		InputTranscript: "How long does it take?",
		SessionState: lex.SessionState{
			SessionAttributes: first.SessionState.SessionAttributes,
			Intent:            lex.NamedIntent("FallbackIntent"),
		},
	})
	require.NoError(t, err)
	// 第二轮：改写 + 回答
	require.Len(t, stub.prompts, 3)
	assert.Contains(t, stub.prompts[1], "<chat_history>")
	assert.Contains(t, stub.prompts[1], "What is the refund policy?")
}

func TestNewBootstrap_InvalidConfig(t *testing.T) {
	_, err := NewBootstrap(context.Background(), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Retrieval.Type = config.RetrievalKendra
	cfg.Retrieval.IndexID = ""
	_, err = NewBootstrap(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewBootstrapWithClients_MemoryRequiresBedrock(t *testing.T) {
	_, err := NewBootstrapWithClients(context.Background(), testConfig(t), Clients{})
	assert.Error(t, err)
}

func TestNeedsClients(t *testing.T) {
	cfg := &config.Config{}
	cfg.Retrieval.Type = config.RetrievalKendra
	cfg.Model.Family = config.FamilyOpenAI
	assert.True(t, needsKendra(cfg))
	assert.False(t, needsBedrock(cfg))

	cfg.Retrieval.Type = config.RetrievalRedis
	assert.False(t, needsKendra(cfg))
	assert.True(t, needsBedrock(cfg))

	cfg.Retrieval.Type = config.RetrievalKendra
	cfg.Model.Family = config.FamilyAI21
	assert.True(t, needsBedrock(cfg))
}

func TestInitTracing_Disabled(t *testing.T) {
	b, err := NewBootstrapWithClients(context.Background(), testConfig(t), Clients{Bedrock: &stubBedrock{}})
	require.NoError(t, err)
	defer b.Close()
	assert.NoError(t, b.InitTracing(context.Background()))
}
