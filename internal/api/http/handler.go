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

package http

import (
	"bytes"
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/log"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/metrics"
)

// Fulfiller 处理 Lex fulfillment 事件，由 lex.Handler 实现
type Fulfiller interface {
	Handle(ctx context.Context, event *lex.Event) (*lex.Response, error)
}

// Handler HTTP 处理器：本地调试时以 HTTP 方式承载 Lambda 的同一套处理逻辑
type Handler struct {
	lex    Fulfiller
	logger *log.Logger
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(fulfiller Fulfiller, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{lex: fulfiller, logger: logger}
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "ok",
	})
}

// LexFulfill 接收 Lex V2 事件 JSON，返回 Lex 响应信封
// POST /api/lex/fulfill
func (h *Handler) LexFulfill(c context.Context, ctx *app.RequestContext) {
	if h.lex == nil {
		ctx.JSON(consts.StatusServiceUnavailable, map[string]string{
			"error": "lex handler not configured",
		})
		return
	}
	event, err := lex.ParseEvent(ctx.Request.Body())
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "invalid lex event",
		})
		return
	}
	resp, err := h.lex.Handle(c, event)
	if err != nil {
		h.logger.Error("lex fulfillment 失败", "session_id", event.SessionID, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

// Metrics 以 Prometheus 文本格式暴露指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
