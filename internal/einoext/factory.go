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
	"fmt"

	redisindexer "github.com/cloudwego/eino-ext/components/indexer/redis"
	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/redis/go-redis/v9"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/storage/vector"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

const (
	defaultIndex     = "default"
	defaultThreshold = 0.3
)

// RetrieverDeps 各检索后端需要的外部依赖，按 retrieval.type 取用
type RetrieverDeps struct {
	Kendra      query.KendraRetrieveAPI // kendra
	Embedder    einoembed.Embedder      // redis / memory
	VectorStore vector.Store            // memory，为空时新建 MemoryStore
}

// NewRetriever 根据 RetrievalConfig 创建 Eino Retriever；返回的 cleanup 释放后端连接，可安全重复调用
func NewRetriever(ctx context.Context, cfg config.RetrievalConfig, deps RetrieverDeps) (einoretriever.Retriever, func(), error) {
	noop := func() {}
	t := cfg.Type
	if t == "" {
		t = config.RetrievalKendra
	}
	switch t {
	case config.RetrievalKendra:
		r, err := query.NewKendraRetriever(&query.KendraRetrieverConfig{
			Client:             deps.Kendra,
			IndexID:            cfg.IndexID,
			TopK:               cfg.TopK,
			MinScoreConfidence: cfg.MinScoreConfidence,
		})
		if err != nil {
			return nil, noop, err
		}
		return r, noop, nil

	case config.RetrievalRedis:
		if deps.Embedder == nil {
			return nil, noop, fmt.Errorf("retrieval type is redis but Embedder is nil")
		}
		client := redis.NewClient(RedisOptions(cfg.Redis))
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		indexName := cfg.Redis.Index
		if indexName == "" {
			indexName = defaultIndex
		}
		if cfg.SeedFile != "" {
			if err := seedRedis(ctx, client, indexName, deps.Embedder, cfg.SeedFile); err != nil {
				_ = client.Close()
				return nil, noop, err
			}
		}
		ret, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
			Client:    client,
			Index:     indexName,
			TopK:      topKOrDefault(cfg.TopK),
			Embedding: deps.Embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis retriever: %w", err)
		}
		return ret, func() { _ = client.Close() }, nil

	case config.RetrievalMemory:
		if deps.Embedder == nil {
			return nil, noop, fmt.Errorf("retrieval type is memory but Embedder is nil")
		}
		store := deps.VectorStore
		if store == nil {
			store = vector.NewMemoryStore()
		}
		if err := store.EnsureIndex(ctx, defaultIndex, 0); err != nil {
			return nil, noop, err
		}
		if cfg.SeedFile != "" {
			passages, err := LoadPassages(cfg.SeedFile)
			if err != nil {
				return nil, noop, err
			}
			if err := IndexPassages(ctx, store, defaultIndex, deps.Embedder, passages); err != nil {
				return nil, noop, err
			}
		}
		ret, err := query.NewMemoryRetriever(&query.MemoryRetrieverConfig{
			VectorStore:      store,
			Embedding:        deps.Embedder,
			DefaultIndex:     defaultIndex,
			DefaultTopK:      topKOrDefault(cfg.TopK),
			DefaultThreshold: defaultThreshold,
		})
		if err != nil {
			return nil, noop, err
		}
		return ret, func() { _ = store.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unsupported retrieval type: %s", t)
	}
}

func topKOrDefault(k int) int {
	if k <= 0 {
		return 3
	}
	return k
}

// seedRedis 通过 eino-ext redis indexer 写入种子段落；索引（FT.CREATE）需预先创建
func seedRedis(ctx context.Context, client *redis.Client, indexName string, embedder einoembed.Embedder, path string) error {
	passages, err := LoadPassages(path)
	if err != nil {
		return err
	}
	idx, err := redisindexer.NewIndexer(ctx, &redisindexer.IndexerConfig{
		Client:    client,
		KeyPrefix: indexName + ":",
		BatchSize: embedBatchSize,
		Embedding: embedder,
	})
	if err != nil {
		return fmt.Errorf("redis indexer: %w", err)
	}
	if _, err := idx.Store(ctx, PassageDocuments(passages)); err != nil {
		return fmt.Errorf("redis seed: %w", err)
	}
	return nil
}
