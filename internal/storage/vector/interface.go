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

package vector

import (
	"context"
)

// Store 向量存储接口（memory 检索后端使用）
type Store interface {
	// EnsureIndex 索引不存在时创建；dimension 为 0 表示首次写入时确定
	EnsureIndex(ctx context.Context, name string, dimension int) error
	// Upsert 写入或覆盖向量
	Upsert(ctx context.Context, indexName string, vectors []*Vector) error
	// Search 按余弦相似度搜索
	Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error)
	// Count 返回索引中的向量数
	Count(ctx context.Context, indexName string) (int, error)
	// Close 关闭存储连接
	Close() error
}

// Vector 向量数据；Metadata 中 content/title/uri 为段落正文与出处
type Vector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

// SearchOptions 搜索选项
type SearchOptions struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"` // 相似度阈值
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// 段落元数据键
const (
	MetaContent = "content"
	MetaTitle   = "title"
	MetaURI     = "uri"
)
