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

package einoext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kendra"
	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/storage/vector"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

// keywordEmbedder 按关键词出现与否生成 2 维向量
type keywordEmbedder struct{ calls int }

func (k *keywordEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	k.calls++
	out := make([][]float64, len(texts))
	for i, s := range texts {
		if strings.Contains(s, "refund") {
			out[i] = []float64{1, 0}
		} else {
			out[i] = []float64{0, 1}
		}
	}
	return out, nil
}

type nopKendra struct{}

func (nopKendra) Retrieve(ctx context.Context, params *kendra.RetrieveInput, optFns ...func(*kendra.Options)) (*kendra.RetrieveOutput, error) {
	return &kendra.RetrieveOutput{}, nil
}

func TestNewRetriever_Kendra(t *testing.T) {
	r, cleanup, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "kendra", IndexID: "idx"}, RetrieverDeps{Kendra: nopKendra{}})
	require.NoError(t, err)
	defer cleanup()
	_, ok := r.(*query.KendraRetriever)
	assert.True(t, ok)
}

func TestNewRetriever_KendraMissingIndex(t *testing.T) {
	_, _, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "kendra"}, RetrieverDeps{Kendra: nopKendra{}})
	assert.Error(t, err)
}

func TestNewRetriever_MemoryWithSeed(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	data := `[
  {"id": "refunds", "title": "Refund policy", "uri": "https://example.com/refunds", "content": "We accept refund requests within 30 days."},
  {"title": "Shipping", "content": "Orders ship in 5 days."},
  {"id": "blank", "content": "   "}
]`
	require.NoError(t, os.WriteFile(seed, []byte(data), 0644))

	store := vector.NewMemoryStore()
	emb := &keywordEmbedder{}
	r, cleanup, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "memory", SeedFile: seed}, RetrieverDeps{Embedder: emb, VectorStore: store})
	require.NoError(t, err)
	defer cleanup()

	n, err := store.Count(context.Background(), defaultIndex)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	docs, err := r.Retrieve(context.Background(), "refund?")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "refunds", docs[0].ID)
}

func TestNewRetriever_MemoryRequiresEmbedder(t *testing.T) {
	_, _, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "memory"}, RetrieverDeps{})
	assert.Error(t, err)
}

func TestNewRetriever_RedisRequiresEmbedder(t *testing.T) {
	_, _, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "redis"}, RetrieverDeps{})
	assert.Error(t, err)
}

func TestNewRetriever_Unsupported(t *testing.T) {
	_, _, err := NewRetriever(context.Background(), config.RetrievalConfig{Type: "elastic"}, RetrieverDeps{})
	assert.Error(t, err)
}

func TestLoadPassages_AssignsIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"content":"a"},{"id":"x","content":"b"}]`), 0644))
	ps, err := LoadPassages(path)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "passage-1", ps[0].ID)
	assert.Equal(t, "x", ps[1].ID)

	require.NoError(t, os.WriteFile(path, []byte(`{"not":"array"}`), 0644))
	_, err = LoadPassages(path)
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions(config.RedisConfig{DB: 2, Password: "pw"})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 2, opts.Protocol)
	assert.True(t, opts.UnstableResp3)
}

func TestPassageDocuments(t *testing.T) {
	docs := PassageDocuments([]Passage{
		{ID: "p1", Title: "Refunds", URI: "s3://kb/refunds.html", Content: "30 days."},
		{ID: "p2", Title: "Blank", Content: "   "},
		{ID: "p3", Content: "no title"},
	})
	require.Len(t, docs, 2)
	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, "Document Title: Refunds\nDocument Excerpt: \n30 days.", docs[0].Content)
	assert.Equal(t, "s3://kb/refunds.html", docs[0].MetaData[query.MetaSource])
	assert.Equal(t, "no title", docs[1].Content)
}
