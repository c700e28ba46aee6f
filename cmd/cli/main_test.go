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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
)

// newFakeAPI 记录收到的事件；每轮把 turns 计数写回 sessionAttributes
func newFakeAPI(t *testing.T, seen *[]lex.Event) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/lex/fulfill", func(w http.ResponseWriter, r *http.Request) {
		var ev lex.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*seen = append(*seen, ev)
		turns, _ := strconv.Atoi(ev.SessionState.SessionAttributes["turns"])
		resp := lex.Response{
			SessionState: lex.ResponseState{
				SessionAttributes: map[string]string{"turns": strconv.Itoa(turns + 1)},
				DialogAction:      lex.DialogAction{Type: lex.DialogActionClose},
				Intent:            lex.Intent{"name": json.RawMessage(`"FallbackIntent"`), "state": json.RawMessage(`"Fulfilled"`)},
			},
			Messages:  []lex.Message{{ContentType: lex.ContentTypePlain, Content: "re: " + ev.InputTranscript}},
			SessionID: ev.SessionID,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckHealth(t *testing.T) {
	var seen []lex.Event
	srv := newFakeAPI(t, &seen)
	if err := checkHealth(newClient(srv.URL)); err != nil {
		t.Fatalf("checkHealth: %v", err)
	}
}

func TestChatSession_CarriesAttributes(t *testing.T) {
	var seen []lex.Event
	srv := newFakeAPI(t, &seen)
	s := newChatSession(newClient(srv.URL))

	answer, err := s.ask("What is the refund policy?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != "re: What is the refund policy?" {
		t.Fatalf("answer = %q", answer)
	}
	if _, err := s.ask("How long does it take?"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 events, got %d", len(seen))
	}
	if seen[0].SessionID != seen[1].SessionID {
		t.Errorf("session id changed between turns")
	}
	if got := seen[1].SessionState.SessionAttributes["turns"]; got != "1" {
		t.Errorf("second turn attributes turns = %q, want 1", got)
	}
	if s.attributes["turns"] != "2" {
		t.Errorf("session attributes after two turns = %v", s.attributes)
	}
}

func TestFulfill_DecodesWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 不设置 Content-Type，net/http 会嗅探为 text/plain
		_, _ = w.Write([]byte(`{"sessionState":{"sessionAttributes":{"k":"v"},"dialogAction":{"type":"Close"},"intent":{"state":"Fulfilled"}},"messages":[{"contentType":"PlainText","content":"plain answer"}],"sessionId":"s1","requestAttributes":null}`))
	}))
	t.Cleanup(srv.Close)

	resp, err := fulfill(newClient(srv.URL), &lex.Event{SessionID: "s1", InputTranscript: "hi"})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "plain answer" {
		t.Fatalf("messages = %+v", resp.Messages)
	}
	if resp.SessionState.SessionAttributes["k"] != "v" {
		t.Errorf("attributes = %v", resp.SessionState.SessionAttributes)
	}
}

func TestRunChat(t *testing.T) {
	var seen []lex.Event
	srv := newFakeAPI(t, &seen)
	var stdout, stderr bytes.Buffer
	runChat(newChatSession(newClient(srv.URL)), strings.NewReader("hello\nagain\nexit\n"), &stdout, &stderr)

	if len(seen) != 2 {
		t.Fatalf("expected 2 turns before exit, got %d", len(seen))
	}
	if !strings.Contains(stdout.String(), "re: again") {
		t.Errorf("stdout = %s", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestRunInvoke(t *testing.T) {
	var seen []lex.Event
	srv := newFakeAPI(t, &seen)
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(`{"sessionId":"s1","inputTranscript":"hi"}`), 0644); err != nil {
		t.Fatalf("write event: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := runInvoke(newClient(srv.URL), path, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr=%s", code, stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("re: hi")) {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestRunInvoke_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{bad`), 0644); err != nil {
		t.Fatalf("write event: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := runInvoke(newClient("http://127.0.0.1:1"), path, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
