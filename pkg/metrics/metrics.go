package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 Lambda / 本地 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TurnTotal, StageDuration, RetrievedDocuments,
		LLMRequestTotal, LLMTokensTotal, HistoryDecodeErrors,
		RateLimitWaitSeconds,
	)
}

// TurnTotal 对话轮次总数（按结果）
var TurnTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lexbot_turn_total",
		Help: "对话轮次总数（按结果）",
	},
	[]string{"outcome"}, // answered | no_documents | empty_input | failed
)

// StageDuration 各阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "lexbot_stage_duration_seconds",
		Help:    "各阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"}, // condense | retrieve | generate | turn
)

// RetrievedDocuments 每次检索返回的文档数
var RetrievedDocuments = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "lexbot_retrieved_documents",
		Help:    "每次检索返回的文档数",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	},
)

// LLMRequestTotal LLM 调用次数
var LLMRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lexbot_llm_request_total",
		Help: "LLM 调用次数",
	},
	[]string{"provider", "status"}, // ok | error
)

// LLMTokensTotal LLM 调用 token 数（估算）
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lexbot_llm_tokens_total",
		Help: "LLM 调用 token 总数（估算）",
	},
	[]string{"direction"}, // input | output
)

// HistoryDecodeErrors 会话历史反序列化失败次数
var HistoryDecodeErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "lexbot_history_decode_errors_total",
		Help: "会话历史反序列化失败次数",
	},
)

// RateLimitWaitSeconds 限流等待时间（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "lexbot_rate_limit_wait_seconds",
		Help:    "限流等待时间（秒）",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"kind", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
