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

package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// 会话属性中的键
const (
	HistoryAttribute = "chat_history"
	VersionAttribute = "chat_history_version"
)

// CodecVersion 当前历史编码版本：JSON 数组，每个元素为 [question, answer] 两元素字符串数组
const CodecVersion = "1"

// ErrHistoryDecode 持久化的历史无法解析
var ErrHistoryDecode = errors.New("chat history decode failed")

// Encode 将历史编码为 [[q, a], ...]；空历史编码为 "[]"
func Encode(h ChatHistory) (string, error) {
	pairs := make([][2]string, len(h))
	for i, t := range h {
		pairs[i] = [2]string{t.Question, t.Answer}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return "", fmt.Errorf("encode chat history: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Decode 解析 Encode 的输出；空串视为空历史
func Decode(raw string) (ChatHistory, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var pairs []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryDecode, err)
	}
	h := make(ChatHistory, 0, len(pairs))
	for i, p := range pairs {
		var pair []string
		if err := json.Unmarshal(p, &pair); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrHistoryDecode, i, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: element %d has %d items, want 2", ErrHistoryDecode, i, len(pair))
		}
		h = append(h, Turn{Question: pair[0], Answer: pair[1]})
	}
	return h, nil
}

// DecodeAttributes 从会话属性读取历史；属性缺失时返回空历史。
// 带版本号且版本不受支持时返回 ErrHistoryDecode；无版本号按 CodecVersion 处理。
func DecodeAttributes(attrs map[string]string) (ChatHistory, error) {
	raw, ok := attrs[HistoryAttribute]
	if !ok {
		return nil, nil
	}
	if v, ok := attrs[VersionAttribute]; ok && v != "" && v != CodecVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrHistoryDecode, v)
	}
	return Decode(raw)
}

// EncodeAttributes 返回写入了历史与版本号的新属性表，其余属性原样保留
func EncodeAttributes(attrs map[string]string, h ChatHistory) (map[string]string, error) {
	raw, err := Encode(h)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		out[k] = v
	}
	out[HistoryAttribute] = raw
	out[VersionAttribute] = CodecVersion
	return out, nil
}
