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
	"testing"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/storage/vector"
)

// mockEinoEmbedder 测试用：固定返回 4 维向量
type mockEinoEmbedder struct{}

func (m *mockEinoEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	vec := []float64{1, 0, 0, 0}
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = vec
	}
	return out, nil
}

func seededStore(t *testing.T) *vector.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := vector.NewMemoryStore()
	if err := store.EnsureIndex(ctx, "default", 4); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	err := store.Upsert(ctx, "default", []*vector.Vector{
		{ID: "p1", Values: []float64{1, 0, 0, 0}, Metadata: map[string]string{
			vector.MetaContent: "Refunds are accepted within 30 days.",
			vector.MetaTitle:   "Refund policy",
			vector.MetaURI:     "https://example.com/refunds",
		}},
		{ID: "p2", Values: []float64{0, 1, 0, 0}, Metadata: map[string]string{vector.MetaContent: "unrelated"}},
		{ID: "p3", Values: []float64{1, 0, 0, 0}, Metadata: map[string]string{vector.MetaContent: "  "}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return store
}

func TestMemoryRetriever_Retrieve(t *testing.T) {
	ret, err := NewMemoryRetriever(&MemoryRetrieverConfig{
		VectorStore: seededStore(t), Embedding: &mockEinoEmbedder{}, DefaultTopK: 5, DefaultThreshold: 0.1,
	})
	if err != nil {
		t.Fatalf("NewMemoryRetriever: %v", err)
	}

	docs, err := ret.Retrieve(context.Background(), "refund?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc (orthogonal and blank passages dropped), got %d", len(docs))
	}
	want := "Document Title: Refund policy\nDocument Excerpt: \nRefunds are accepted within 30 days."
	if docs[0].ID != "p1" || docs[0].Content != want {
		t.Errorf("unexpected doc: id=%s content=%q", docs[0].ID, docs[0].Content)
	}
	if docs[0].MetaData[MetaSource] != "https://example.com/refunds" {
		t.Errorf("source metadata: %v", docs[0].MetaData)
	}
}

func TestMemoryRetriever_EmbeddingOption(t *testing.T) {
	ret, err := NewMemoryRetriever(&MemoryRetrieverConfig{VectorStore: seededStore(t)})
	if err != nil {
		t.Fatalf("NewMemoryRetriever: %v", err)
	}
	if _, err := ret.Retrieve(context.Background(), "q"); err == nil {
		t.Error("Retrieve without embedder should error")
	}
	docs, err := ret.Retrieve(context.Background(), "q", einoretriever.WithEmbedding(&mockEinoEmbedder{}))
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 doc, got %d", len(docs))
	}
}

func TestNewMemoryRetriever_RequiresStore(t *testing.T) {
	if _, err := NewMemoryRetriever(&MemoryRetrieverConfig{}); err == nil {
		t.Error("expected error without VectorStore")
	}
}
