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

// Package lex 负责 Lex V2 fulfillment 事件与响应的编解码，以及会话历史的读写
package lex

import "encoding/json"

// Event Lex V2 fulfillment 请求（仅列出用到的字段）
type Event struct {
	SessionID         string          `json:"sessionId"`
	InputTranscript   string          `json:"inputTranscript"`
	InvocationSource  string          `json:"invocationSource,omitempty"`
	Bot               json.RawMessage `json:"bot,omitempty"`
	SessionState      SessionState    `json:"sessionState"`
	RequestAttributes json.RawMessage `json:"requestAttributes,omitempty"`
}

// SessionState 请求中的会话状态；Intent 按原样透传，只改写 state
type SessionState struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	Intent            Intent            `json:"intent"`
}

// Intent Lex intent 的原始字段；除 state 外逐字节透传
type Intent map[string]json.RawMessage

// NamedIntent 构造只含 name 的 intent
func NamedIntent(name string) Intent {
	return Intent{"name": rawString(name)}
}

// StringField 读取字符串字段，缺失或不是字符串时返回空串
func (i Intent) StringField(key string) string {
	raw, ok := i[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// State 返回 intent.state
func (i Intent) State() string {
	return i.StringField(intentStateField)
}

// Response Lex V2 fulfillment 响应
type Response struct {
	SessionState ResponseState `json:"sessionState"`
	Messages     []Message     `json:"messages"`
	SessionID    string        `json:"sessionId"`
	// 请求未携带时输出 JSON null
	RequestAttributes json.RawMessage `json:"requestAttributes"`
}

// ResponseState 响应中的会话状态
type ResponseState struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	DialogAction      DialogAction      `json:"dialogAction"`
	Intent            Intent            `json:"intent"`
}

// DialogAction 对话动作
type DialogAction struct {
	Type string `json:"type"`
}

// Message 返回给用户的消息
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Lex 取值
const (
	DialogActionClose = "Close"
	IntentFulfilled   = "Fulfilled"
	IntentFailed      = "Failed"
	ContentTypePlain  = "PlainText"
	intentStateField  = "state"
)

// ParseEvent 解析原始事件 JSON
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// intentWithState 复制 intent 并写入 state，不修改请求对象
func intentWithState(intent Intent, state string) Intent {
	out := make(Intent, len(intent)+1)
	for k, v := range intent {
		out[k] = v
	}
	out[intentStateField] = rawString(state)
	return out
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func copyAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
