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

package lex

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/common"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/pipeline/query"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/runtime/session"
	pkgerrors "github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/errors"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/log"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/metrics"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/tracing"
)

// TurnHandler 一轮对话的处理者，由 query.Chain 实现
type TurnHandler interface {
	Handle(ctx context.Context, utterance string, history session.ChatHistory) (*query.Result, error)
}

// Handler Lex fulfillment 处理器：解码历史、调用对话链、编码响应
type Handler struct {
	chain    TurnHandler
	deadline time.Duration
	logger   *log.Logger
}

// NewHandler 创建 Handler；deadline<=0 表示不额外限时
func NewHandler(chain TurnHandler, deadline time.Duration, logger *log.Logger) (*Handler, error) {
	if chain == nil {
		return nil, errors.New("lex handler requires a chain")
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{chain: chain, deadline: deadline, logger: logger}, nil
}

// Handle 处理一次 Lex 请求。对话链失败时返回 Failed 响应，error 始终为 nil，
// 以便 Lex 向用户展示通用提示而不是平台错误。
func (h *Handler) Handle(ctx context.Context, event *Event) (*Response, error) {
	if event == nil {
		event = &Event{}
	}
	logger := h.logger.With("session_id", event.SessionID, "request_id", requestID(ctx))

	ctx, span := tracing.StartTurnSpan(ctx, event.SessionID)
	var turnErr error
	defer func() { tracing.EndSpan(span, turnErr) }()

	if h.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deadline)
		defer cancel()
	}

	attrs := event.SessionState.SessionAttributes
	if event.SessionState.Intent == nil {
		turnErr = common.ErrInvalidInput
		logger.WarnContext(ctx, "lex event has no sessionState.intent", "invocation_source", event.InvocationSource)
		metrics.TurnTotal.WithLabelValues(string(common.OutcomeFailed)).Inc()
		return failure(event, attrs), nil
	}

	history, err := session.DecodeAttributes(attrs)
	if err != nil {
		metrics.HistoryDecodeErrors.Inc()
		logger.WarnContext(ctx, "chat history unreadable, continuing without history", "error", err)
		history = nil
	}
	logger.DebugContext(ctx, "lex turn", "input", event.InputTranscript, "history_turns", history.Len())

	start := time.Now()
	res, err := h.chain.Handle(ctx, event.InputTranscript, history)
	if err != nil {
		turnErr = err
		stage := ""
		if pe, ok := common.GetPipelineError(err); ok {
			stage = string(pe.Stage)
		}
		logger.ErrorContext(ctx, "turn failed",
			"error", err, "stage", stage, "timeout", pkgerrors.IsTimeout(err),
			"elapsed_ms", time.Since(start).Milliseconds())
		return failure(event, attrs), nil
	}

	outAttrs, err := session.EncodeAttributes(attrs, res.History)
	if err != nil {
		turnErr = err
		logger.ErrorContext(ctx, "encode chat history", "error", err)
		return failure(event, attrs), nil
	}

	logger.InfoContext(ctx, "turn completed",
		"outcome", string(res.Outcome), "documents", len(res.Documents),
		"history_turns", res.History.Len(), "elapsed_ms", time.Since(start).Milliseconds())

	return &Response{
		SessionState: ResponseState{
			SessionAttributes: outAttrs,
			DialogAction:      DialogAction{Type: DialogActionClose},
			Intent:            intentWithState(event.SessionState.Intent, IntentFulfilled),
		},
		Messages:          []Message{{ContentType: ContentTypePlain, Content: res.Answer}},
		SessionID:         event.SessionID,
		RequestAttributes: event.RequestAttributes,
	}, nil
}

// failure 构造 Failed 响应：通用提示，会话属性（含历史）原样保留
func failure(event *Event, attrs map[string]string) *Response {
	return &Response{
		SessionState: ResponseState{
			SessionAttributes: copyAttributes(attrs),
			DialogAction:      DialogAction{Type: DialogActionClose},
			Intent:            intentWithState(event.SessionState.Intent, IntentFailed),
		},
		Messages:          []Message{{ContentType: ContentTypePlain, Content: common.FailureReply}},
		SessionID:         event.SessionID,
		RequestAttributes: event.RequestAttributes,
	}
}

// requestID Lambda 下取 AwsRequestID，否则生成 uuid
func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
