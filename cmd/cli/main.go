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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/api/lex"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

const version = "lexbot cli 0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	client := newClient(apiBaseURL())
	switch cmd {
	case "version":
		fmt.Println(version)
	case "health":
		if err := checkHealth(client); err != nil {
			fmt.Fprintf(os.Stderr, "health: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("ok")
	case "config":
		runConfig(os.Stdout)
	case "invoke":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: lexbot invoke <event.json>\n")
			os.Exit(1)
		}
		os.Exit(runInvoke(client, args[0], os.Stdout, os.Stderr))
	case "ask":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: lexbot ask <question>\n")
			os.Exit(1)
		}
		s := newChatSession(client)
		answer, err := s.ask(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ask: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(answer)
	case "chat":
		runChat(newChatSession(client), os.Stdin, os.Stdout, os.Stderr)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: lexbot <command> [args]")
	fmt.Println("  version            - 显示版本")
	fmt.Println("  health             - 检查本地 API 服务（LEXBOT_API_URL，默认 http://localhost:8080）")
	fmt.Println("  config             - 显示配置概要")
	fmt.Println("  invoke <event.json> - 发送 Lex 事件文件并输出响应 JSON")
	fmt.Println("  ask <question>     - 单轮提问")
	fmt.Println("  chat               - 交互式多轮对话，会话属性在轮次间携带")
}

func runConfig(w io.Writer) {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(w, "aws.region=%s\n", cfg.AWS.Region)
	fmt.Fprintf(w, "retrieval.type=%s\n", cfg.Retrieval.Type)
	fmt.Fprintf(w, "retrieval.index_id=%s\n", cfg.Retrieval.IndexID)
	fmt.Fprintf(w, "model.family=%s\n", cfg.Model.Family)
	fmt.Fprintf(w, "history.max_turns=%d\n", cfg.History.MaxTurns)
	fmt.Fprintf(w, "api.port=%d\n", cfg.API.Port)
}

func runInvoke(client *resty.Client, path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "读取事件文件失败: %v\n", err)
		return 1
	}
	if _, err := lex.ParseEvent(data); err != nil {
		fmt.Fprintf(stderr, "事件文件不是合法 JSON: %v\n", err)
		return 1
	}
	resp, err := client.R().SetBody(data).Post("/api/lex/fulfill")
	if err != nil {
		fmt.Fprintf(stderr, "invoke: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, resp.String())
	if resp.IsError() {
		return 1
	}
	return 0
}

// chatSession 模拟 Lex：每轮把上一轮返回的 sessionAttributes 带回
type chatSession struct {
	client     *resty.Client
	sessionID  string
	attributes map[string]string
}

func newChatSession(client *resty.Client) *chatSession {
	return &chatSession{client: client, sessionID: uuid.NewString()}
}

func (s *chatSession) ask(text string) (string, error) {
	event := &lex.Event{
		SessionID:        s.sessionID,
		InputTranscript:  text,
		InvocationSource: "FulfillmentCodeHook",
		SessionState: lex.SessionState{
			SessionAttributes: s.attributes,
			Intent:            lex.NamedIntent("FallbackIntent"),
		},
	}
	resp, err := fulfill(s.client, event)
	if err != nil {
		return "", err
	}
	s.attributes = resp.SessionState.SessionAttributes
	if len(resp.Messages) == 0 {
		return "", nil
	}
	return resp.Messages[0].Content, nil
}

func runChat(s *chatSession, in io.Reader, stdout, stderr io.Writer) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(stdout, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		msg := strings.TrimSpace(line)
		if msg == "exit" || msg == "quit" {
			break
		}
		answer, askErr := s.ask(msg)
		if askErr != nil {
			fmt.Fprintf(stderr, "发送失败: %v\n", askErr)
		} else {
			fmt.Fprintln(stdout, answer)
		}
		if err != nil {
			break
		}
	}
}
