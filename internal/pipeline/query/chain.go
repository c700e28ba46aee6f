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

package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/common"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/runtime/session"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/log"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/metrics"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/tracing"
)

// ChainConfig Chain 构造参数
type ChainConfig struct {
	Condenser *Condenser
	Generator *Generator
	Retriever einoretriever.Retriever

	MaxTurns         int
	AppendEmptyInput bool
	RecordAnswers    bool
	RetrievalTimeout time.Duration

	Logger *log.Logger
}

// Chain 一轮对话：改写 -> 检索 -> 回答 -> 更新历史
type Chain struct {
	condenser        *Condenser
	generator        *Generator
	retriever        einoretriever.Retriever
	maxTurns         int
	appendEmptyInput bool
	recordAnswers    bool
	retrievalTimeout time.Duration
	logger           *log.Logger
}

// Result 一轮对话的结果
type Result struct {
	Answer    string
	Question  string // 实际用于检索的独立问题
	History   session.ChatHistory
	Documents []*schema.Document
	Outcome   common.Outcome
}

// NewChain 创建 Chain
func NewChain(cfg *ChainConfig) (*Chain, error) {
	if cfg == nil || cfg.Condenser == nil || cfg.Generator == nil || cfg.Retriever == nil {
		return nil, fmt.Errorf("chain requires condenser, generator and retriever")
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = session.DefaultMaxTurns
	}
	if maxTurns > session.DefaultMaxTurns {
		return nil, fmt.Errorf("chain max turns %d exceeds %d", maxTurns, session.DefaultMaxTurns)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Chain{
		condenser:        cfg.Condenser,
		generator:        cfg.Generator,
		retriever:        cfg.Retriever,
		maxTurns:         maxTurns,
		appendEmptyInput: cfg.AppendEmptyInput,
		recordAnswers:    cfg.RecordAnswers,
		retrievalTimeout: cfg.RetrievalTimeout,
		logger:           logger,
	}, nil
}

// Handle 处理一轮对话。history 不会被修改；返回的 Result.History 为追加并截断后的新历史。
// 出错时返回 *common.PipelineError，调用方负责降级。
func (c *Chain) Handle(ctx context.Context, utterance string, history session.ChatHistory) (*Result, error) {
	start := time.Now()
	res, err := c.handle(ctx, utterance, history)
	metrics.StageDuration.WithLabelValues("turn").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TurnTotal.WithLabelValues(string(common.OutcomeFailed)).Inc()
		return nil, err
	}
	metrics.TurnTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res, nil
}

func (c *Chain) handle(ctx context.Context, utterance string, history session.ChatHistory) (*Result, error) {
	history = history.Truncate(c.maxTurns)

	if strings.TrimSpace(utterance) == "" {
		next := history.Clone()
		if c.appendEmptyInput {
			next = history.Append(session.Turn{Question: utterance, Answer: session.AnswerPlaceholder}, c.maxTurns)
		}
		return &Result{
			Answer:  common.EmptyInputReply,
			History: next,
			Outcome: common.OutcomeEmptyInput,
		}, nil
	}

	question := utterance
	if !history.IsEmpty() {
		var err error
		question, err = c.condense(ctx, history, utterance)
		if err != nil {
			return nil, err
		}
		if question == "" {
			question = utterance
		}
	}

	docs, err := c.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	res := &Result{Question: question, Documents: docs}
	if len(docs) == 0 {
		res.Answer = common.NoDocumentReply
		res.Outcome = common.OutcomeNoDocuments
	} else {
		answer, err := c.generate(ctx, question, docs)
		if err != nil {
			return nil, err
		}
		res.Answer = answer
		res.Outcome = common.OutcomeAnswered
	}

	recorded := session.AnswerPlaceholder
	if c.recordAnswers {
		recorded = res.Answer
	}
	res.History = history.Append(session.Turn{Question: utterance, Answer: recorded}, c.maxTurns)
	return res, nil
}

func (c *Chain) condense(ctx context.Context, history session.ChatHistory, utterance string) (q string, err error) {
	ctx, span := tracing.StartStageSpan(ctx, string(common.StageCondense))
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(string(common.StageCondense)).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	q, err = c.condenser.Condense(ctx, history, utterance)
	if err != nil {
		return "", common.NewPipelineError(common.StageCondense, "condense question", err)
	}
	c.logger.DebugContext(ctx, "question condensed", "question", q, "history_turns", history.Len())
	return q, nil
}

func (c *Chain) retrieve(ctx context.Context, question string) (docs []*schema.Document, err error) {
	ctx, span := tracing.StartStageSpan(ctx, string(common.StageRetrieve))
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(string(common.StageRetrieve)).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	if c.retrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.retrievalTimeout)
		defer cancel()
	}
	docs, err = c.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, common.NewPipelineError(common.StageRetrieve, "retrieve documents", err)
	}
	metrics.RetrievedDocuments.Observe(float64(len(docs)))
	c.logger.DebugContext(ctx, "documents retrieved", "count", len(docs))
	return docs, nil
}

func (c *Chain) generate(ctx context.Context, question string, docs []*schema.Document) (answer string, err error) {
	ctx, span := tracing.StartStageSpan(ctx, string(common.StageGenerate))
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(string(common.StageGenerate)).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	answer, err = c.generator.Answer(ctx, question, docs)
	if err != nil {
		return "", common.NewPipelineError(common.StageGenerate, "generate answer", err)
	}
	return answer, nil
}
