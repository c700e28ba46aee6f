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

// DefaultMaxTurns 会话中保留的最近轮次数
const DefaultMaxTurns = 3

// AnswerPlaceholder 不记录回答时写入历史的占位符
const AnswerPlaceholder = "..."

// Turn 一轮对话：用户问题 + 回答（或占位符）
type Turn struct {
	Question string
	Answer   string
}

// ChatHistory 按时间顺序排列的对话轮次，越靠后越新
type ChatHistory []Turn

// Len 返回轮次数
func (h ChatHistory) Len() int { return len(h) }

// IsEmpty 是否没有历史
func (h ChatHistory) IsEmpty() bool { return len(h) == 0 }

// Clone 返回副本，避免调用方共享底层数组
func (h ChatHistory) Clone() ChatHistory {
	if h == nil {
		return nil
	}
	out := make(ChatHistory, len(h))
	copy(out, h)
	return out
}

// Append 追加一轮并截断到最近 maxTurns 轮（最旧的先被淘汰）；不修改接收者
func (h ChatHistory) Append(t Turn, maxTurns int) ChatHistory {
	out := make(ChatHistory, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, t)
	return out.Truncate(maxTurns)
}

// Truncate 只保留最近 maxTurns 轮；maxTurns<=0 时使用 DefaultMaxTurns
func (h ChatHistory) Truncate(maxTurns int) ChatHistory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if len(h) <= maxTurns {
		return h
	}
	return h[len(h)-maxTurns:]
}
