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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/storage/vector"
)

// Passage memory / redis 后端的种子段落
type Passage struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

const embedBatchSize = 16

// LoadPassages 读取 JSON 数组格式的种子文件
func LoadPassages(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var passages []Passage
	if err := json.Unmarshal(data, &passages); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i := range passages {
		if passages[i].ID == "" {
			passages[i].ID = fmt.Sprintf("passage-%d", i+1)
		}
	}
	return passages, nil
}

// IndexPassages 分批向量化段落并写入 store，空正文的段落跳过
func IndexPassages(ctx context.Context, store vector.Store, indexName string, embedder einoembed.Embedder, passages []Passage) error {
	kept := make([]Passage, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Content) != "" {
			kept = append(kept, p)
		}
	}
	for start := 0; start < len(kept); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(kept) {
			end = len(kept)
		}
		batch := kept[start:end]
		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}
		vecs, err := embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed passages: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d passages", len(vecs), len(batch))
		}
		vectors := make([]*vector.Vector, len(batch))
		for i, p := range batch {
			vectors[i] = &vector.Vector{
				ID:     p.ID,
				Values: vecs[i],
				Metadata: map[string]string{
					vector.MetaContent: p.Content,
					vector.MetaTitle:   p.Title,
					vector.MetaURI:     p.URI,
				},
			}
		}
		if err := store.Upsert(ctx, indexName, vectors); err != nil {
			return err
		}
	}
	return nil
}

// PassageDocuments 将段落转换为 eino Document；正文附带标题，空正文的段落跳过
func PassageDocuments(passages []Passage) []*schema.Document {
	docs := make([]*schema.Document, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		docs = append(docs, &schema.Document{
			ID:      p.ID,
			Content: query.CombinedText(p.Title, p.Content),
			MetaData: map[string]any{
				query.MetaTitle:  p.Title,
				query.MetaSource: p.URI,
			},
		})
	}
	return docs
}
