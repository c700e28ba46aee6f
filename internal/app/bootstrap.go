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
	"fmt"
	"os"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/einoext"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/model/llm"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/prompt"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/log"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/tracing"
)

// Bootstrap 统一初始化：供 lambda 与 api 复用，冷启动时构造一次，之后每轮请求复用
type Bootstrap struct {
	Config     *config.Config
	Logger     *log.Logger
	Chain      *query.Chain
	LexHandler *lex.Handler

	cleanups []func()
}

// NewBootstrap 根据配置创建 AWS 客户端并装配对话链
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	clients, err := NewClientsFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewBootstrapWithClients(ctx, cfg, clients)
}

// NewBootstrapWithClients 使用给定的客户端装配对话链（测试与本地调试注入桩实现）
func NewBootstrapWithClients(ctx context.Context, cfg *config.Config, clients Clients) (*Bootstrap, error) {
	logCfg := &log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	b := &Bootstrap{Config: cfg, Logger: logger}

	deps := einoext.RetrieverDeps{Kendra: clients.Kendra}
	embedder, err := NewEmbedderFromConfig(cfg, clients.Bedrock)
	if err != nil {
		return nil, err
	}
	if embedder != nil {
		deps.Embedder = embedder
	}
	retriever, closeRetriever, err := einoext.NewRetriever(ctx, cfg.Retrieval, deps)
	if err != nil {
		return nil, fmt.Errorf("初始化检索后端失败: %w", err)
	}
	b.cleanups = append(b.cleanups, closeRetriever)

	limiter := llm.NewLLMRateLimiter(cfg.RateLimits.LLM, nil)
	condenseClient, answerClient, err := llm.NewRoleClients(ctx, cfg.Model, llm.Deps{Bedrock: clients.Bedrock}, llm.RoleClientOptions{
		CallTimeout: cfg.Model.CallTimeout,
		MaxRetries:  cfg.Model.MaxRetries,
		Limiter:     limiter,
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化模型客户端失败: %w", err)
	}

	prompts := prompt.NewStore()
	condenser, err := query.NewCondenser(condenseClient, prompts)
	if err != nil {
		b.Close()
		return nil, err
	}
	generator, err := query.NewGenerator(answerClient, prompts)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Chain, err = query.NewChain(&query.ChainConfig{
		Condenser:        condenser,
		Generator:        generator,
		Retriever:        retriever,
		MaxTurns:         cfg.History.MaxTurns,
		AppendEmptyInput: cfg.History.AppendEmptyInput,
		RecordAnswers:    cfg.History.RecordAnswers,
		RetrievalTimeout: cfg.Retrieval.CallTimeout,
		Logger:           logger,
	})
	if err != nil {
		b.Close()
		return nil, err
	}
	b.LexHandler, err = lex.NewHandler(b.Chain, cfg.Handler.Deadline, logger)
	if err != nil {
		b.Close()
		return nil, err
	}

	logger.Info("bootstrap 完成",
		"retrieval", cfg.Retrieval.Type,
		"model_family", cfg.Model.Family,
		"condense_model", condenseClient.Model(),
		"answer_model", answerClient.Model(),
	)
	return b, nil
}

// InitTracing 按 monitoring.tracing 配置启用 OTLP 导出；未启用或无 endpoint 时不做任何事
func (b *Bootstrap) InitTracing(ctx context.Context) error {
	tc := b.Config.Monitoring.Tracing
	if !tc.Enable {
		return nil
	}
	endpoint := tc.ExportEndpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return nil
	}
	tp, err := tracing.InitTracer(ctx, tracing.OTelConfig{
		ServiceName:    tc.ServiceName,
		ExportEndpoint: endpoint,
		Insecure:       tc.Insecure,
	})
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	b.cleanups = append(b.cleanups, func() { flushTracer(tp) })
	b.Logger.Info("链路追踪已启用", "service_name", tc.ServiceName, "endpoint", endpoint)
	return nil
}

func flushTracer(tp *sdktrace.TracerProvider) {
	_ = tp.Shutdown(context.Background())
}

// Close 释放检索后端连接与 tracer，可重复调用
func (b *Bootstrap) Close() {
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil
}
