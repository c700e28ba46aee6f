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
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
)

// stubFulfiller 回显输入并返回固定答案
type stubFulfiller struct {
	err   error
	event *lex.Event
}

func (s *stubFulfiller) Handle(ctx context.Context, event *lex.Event) (*lex.Response, error) {
	s.event = event
	if s.err != nil {
		return nil, s.err
	}
	return &lex.Response{
		SessionState: lex.ResponseState{
			SessionAttributes: map[string]string{"chat_history": "[]"},
			DialogAction:      lex.DialogAction{Type: lex.DialogActionClose},
			Intent:            lex.Intent{"name": json.RawMessage(`"FallbackIntent"`), "state": json.RawMessage(`"Fulfilled"`)},
		},
		Messages:  []lex.Message{{ContentType: lex.ContentTypePlain, Content: "answer for " + event.InputTranscript}},
		SessionID: event.SessionID,
	}, nil
}

func TestHealthCheck(t *testing.T) {
	h := server.Default(server.WithHostPorts(":0"))
	handler := NewHandler(nil, nil)
	h.GET("/api/health", func(ctx context.Context, c *app.RequestContext) {
		handler.HealthCheck(ctx, c)
	})
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("HealthCheck status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("ok")) {
		t.Errorf("HealthCheck body: %s", resp.Body())
	}
}

func TestLexFulfill(t *testing.T) {
	stub := &stubFulfiller{}
	handler := NewHandler(stub, nil)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/lex/fulfill", handler.LexFulfill)

	body := []byte(`{"sessionId":"s1","inputTranscript":"What is the refund policy?","sessionState":{"intent":{"name":"FallbackIntent"}}}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("LexFulfill status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	if stub.event == nil || stub.event.InputTranscript != "What is the refund policy?" {
		t.Fatalf("LexFulfill did not forward event: %+v", stub.event)
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("LexFulfill body not json: %v", err)
	}
	if out["sessionId"] != "s1" {
		t.Errorf("sessionId: got %v", out["sessionId"])
	}
	if v, ok := out["requestAttributes"]; !ok || v != nil {
		t.Errorf("requestAttributes should be null, got %v (present=%v)", v, ok)
	}
	msgs, _ := out["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages: got %v", out["messages"])
	}
}

func TestLexFulfill_InvalidBody(t *testing.T) {
	stub := &stubFulfiller{}
	handler := NewHandler(stub, nil)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/lex/fulfill", handler.LexFulfill)

	body := []byte(`{not json`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 400 {
		t.Errorf("invalid body: status got %d, want 400", got)
	}
	if stub.event != nil {
		t.Errorf("fulfiller should not be called on invalid body")
	}
}

func TestLexFulfill_HandlerError(t *testing.T) {
	handler := NewHandler(&stubFulfiller{err: errors.New("boom")}, nil)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/lex/fulfill", handler.LexFulfill)

	body := []byte(`{"sessionId":"s1","inputTranscript":"hi"}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 500 {
		t.Errorf("handler error: status got %d, want 500", got)
	}
}

func TestLexFulfill_NotConfigured(t *testing.T) {
	handler := NewHandler(nil, nil)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/lex/fulfill", handler.LexFulfill)

	body := []byte(`{}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/lex/fulfill", &ut.Body{Body: bytes.NewReader(body), Len: len(body)})
	if got := w.Result().StatusCode(); got != 503 {
		t.Errorf("not configured: status got %d, want 503", got)
	}
}
