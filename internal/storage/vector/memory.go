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
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	indexes map[string]*index
	mu      sync.RWMutex
}

type index struct {
	vectors   map[string]*Vector
	dimension int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes: make(map[string]*index),
	}
}

// EnsureIndex 索引不存在时创建，存在则跳过
func (s *MemoryStore) EnsureIndex(ctx context.Context, name string, dimension int) error {
	if name == "" {
		return fmt.Errorf("index name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, exists := s.indexes[name]; exists {
		if dimension > 0 && idx.dimension > 0 && idx.dimension != dimension {
			return fmt.Errorf("index %s exists with dimension %d, want %d", name, idx.dimension, dimension)
		}
		return nil
	}
	s.indexes[name] = &index{vectors: make(map[string]*Vector), dimension: dimension}
	return nil
}

// Upsert 写入或覆盖向量
func (s *MemoryStore) Upsert(ctx context.Context, indexName string, vectors []*Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}

	for _, v := range vectors {
		if v == nil || v.ID == "" {
			return fmt.Errorf("vector id is required")
		}
		if idx.dimension == 0 {
			idx.dimension = len(v.Values)
		}
		if len(v.Values) != idx.dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v.Values), idx.dimension)
		}
		idx.vectors[v.ID] = v
	}
	return nil
}

// Search 搜索向量；得分相同按 ID 升序，保证结果稳定
func (s *MemoryStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("index with name %s not found", indexName)
	}
	if len(idx.vectors) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dimension)
	}

	if options == nil {
		options = &SearchOptions{TopK: 10}
	}

	results := make([]*SearchResult, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		score := cosineSimilarity(query, v.Values)
		if score < options.Threshold {
			continue
		}
		results = append(results, &SearchResult{ID: id, Score: score, Metadata: v.Metadata})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if options.TopK > 0 && len(results) > options.TopK {
		results = results[:options.TopK]
	}
	return results, nil
}

// Count 返回索引中的向量数
func (s *MemoryStore) Count(ctx context.Context, indexName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.indexes[indexName]
	if !exists {
		return 0, fmt.Errorf("index with name %s not found", indexName)
	}
	return len(idx.vectors), nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
