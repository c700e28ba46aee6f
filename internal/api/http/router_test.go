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
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/http/middleware"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/metrics"
)

func buildRouterForTest(rps float64) *server.Hertz {
	h := NewHandler(&stubFulfiller{}, nil)
	mw := middleware.NewMiddleware(nil)
	r := NewRouter(h, mw)
	r.SetRateLimit(rps, 1)
	return r.Build(":0")
}

func TestRouter_Routes(t *testing.T) {
	s := buildRouterForTest(0)

	w := ut.PerformRequest(s.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /api/health status = %d, want 200", got)
	}
	if got := string(w.Result().Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Errorf("CORS header = %q, want *", got)
	}

	body := []byte(`{"sessionId":"s","inputTranscript":"hi"}`)
	w = ut.PerformRequest(s.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("POST /api/lex/fulfill status = %d, want 200", got)
	}

	w = ut.PerformRequest(s.Engine, "GET", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got == 200 {
		t.Fatalf("GET /api/lex/fulfill status = %d, want non-200", got)
	}
}

func TestRouter_Preflight(t *testing.T) {
	s := buildRouterForTest(0)
	w := ut.PerformRequest(s.Engine, "OPTIONS", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 204 {
		t.Fatalf("OPTIONS /api/lex/fulfill status = %d, want 204", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	metrics.TurnTotal.WithLabelValues("answered").Add(0)
	s := buildRouterForTest(0)
	w := ut.PerformRequest(s.Engine, "GET", "/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("GET /metrics status = %d, want 200", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("lexbot_turn_total")) {
		t.Errorf("GET /metrics body missing lexbot_turn_total")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := buildRouterForTest(0.001)
	body := []byte(`{"sessionId":"s","inputTranscript":"hi"}`)

	w := ut.PerformRequest(s.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("first request status = %d, want 200", got)
	}
	w = ut.PerformRequest(s.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 429 {
		t.Fatalf("second request status = %d, want 429", got)
	}
}
