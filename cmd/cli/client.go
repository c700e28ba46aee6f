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

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
)

func apiBaseURL() string {
	if u := os.Getenv("LEXBOT_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
}

func checkHealth(c *resty.Client) error {
	resp, err := c.R().Get("/api/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return nil
}

// fulfill 发送 Lex 事件（任意 JSON 可序列化值或原始字节）并解析响应；
// 不依赖服务端 Content-Type，响应体一律按 JSON 解码
func fulfill(c *resty.Client, event interface{}) (*lex.Response, error) {
	var out lex.Response
	resp, err := c.R().
		SetBody(event).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/api/lex/fulfill")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/lex/fulfill: %s", resp.String())
	}
	return &out, nil
}
