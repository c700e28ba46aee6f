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

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/http"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/http/middleware"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/app"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/log"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App 本地 API 应用：以 HTTP 承载与 Lambda 相同的 Lex 处理器
type App struct {
	config       *app.Bootstrap
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil || bootstrap.LexHandler == nil {
		return nil, fmt.Errorf("bootstrap 未装配 Lex 处理器")
	}
	handler := http.NewHandler(bootstrap.LexHandler, bootstrap.Logger)
	router := http.NewRouter(handler, middleware.NewMiddleware(bootstrap.Logger))
	if bootstrap.Config != nil {
		router.SetRateLimit(bootstrap.Config.API.RateLimit, bootstrap.Config.API.Burst)
	}
	return &App{config: bootstrap, router: router}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.config.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	var output io.Writer = os.Stdout
	levelVar := &slog.LevelVar{}
	levelVar.Set(slog.LevelInfo)
	if cfg := a.config.Config; cfg != nil {
		if cfg.Log.File != "" {
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("打开日志文件失败: %w", err)
			}
			output = f
		}
		if cfg.Log.Level != "" {
			levelVar.Set(log.ParseLevel(cfg.Log.Level))
		}
	}
	hertzLogger := hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	)
	hlog.SetLogger(hertzLogger)

	a.hertz = a.build(addr)
	return a.hertz.Run()
}

// build 按 monitoring.tracing 决定是否挂载 OpenTelemetry server tracer
func (a *App) build(addr string) *server.Hertz {
	cfg := a.config.Config
	if cfg == nil || !cfg.Monitoring.Tracing.Enable {
		return a.router.Build(addr)
	}
	serviceName := cfg.Monitoring.Tracing.ServiceName
	if serviceName == "" {
		serviceName = "lexbot-api"
	}
	exportEndpoint := cfg.Monitoring.Tracing.ExportEndpoint
	if exportEndpoint == "" {
		exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if exportEndpoint == "" {
		return a.router.Build(addr)
	}

	opts := []provider.Option{
		provider.WithServiceName(serviceName),
		provider.WithExportEndpoint(exportEndpoint),
	}
	if cfg.Monitoring.Tracing.Insecure {
		opts = append(opts, provider.WithInsecure())
	}
	a.otelProvider = provider.NewOpenTelemetryProvider(opts...)
	tracerOpt, tracerCfg := hertztracing.NewServerTracer()
	h := a.router.Build(addr, tracerOpt)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	a.config.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
	return h
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	a.config.Close()
	return nil
}
