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

package common

// Stage 一轮对话中的处理阶段
type Stage string

const (
	StageCondense Stage = "condense"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
)

// Outcome 一轮对话的结局，用作指标标签
type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeNoDocuments Outcome = "no_documents"
	OutcomeEmptyInput  Outcome = "empty_input"
	OutcomeFailed      Outcome = "failed"
)

// 固定回复
const (
	EmptyInputReply = "Please provide a question."
	NoDocumentReply = "I don't know"
	FailureReply    = "Sorry, I ran into a problem answering that. Please try again."
)
