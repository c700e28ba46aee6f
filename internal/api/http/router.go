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
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	rps        float64
	burst      int
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, middleware *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: middleware}
}

// SetRateLimit 设置 fulfill 接口的请求级限流
func (r *Router) SetRateLimit(rps float64, burst int) {
	r.rps = rps
	r.burst = burst
}

// Build 创建 Hertz 实例并注册路由，opts 可附加 tracer 等服务端选项
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(opts...)
	h.Use(r.middleware.AccessLog())

	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api", r.middleware.CORS())
	api.GET("/health", r.handler.HealthCheck)
	api.OPTIONS("/*path", r.handler.HealthCheck)

	lexGroup := api.Group("/lex")
	lexGroup.POST("/fulfill", r.middleware.RateLimit(r.rps, r.burst), r.handler.LexFulfill)
	return h
}
