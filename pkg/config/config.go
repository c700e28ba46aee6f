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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	AWS        AWSConfig        `mapstructure:"aws"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Model      ModelConfig      `mapstructure:"model"`
	History    HistoryConfig    `mapstructure:"history"`
	Handler    HandlerConfig    `mapstructure:"handler"`
	API        APIConfig        `mapstructure:"api"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
}

// AWSConfig AWS 区域配置（Lambda 环境变量 aws_region）
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// RetrievalConfig 检索后端配置
type RetrievalConfig struct {
	Type               string        `mapstructure:"type"`     // kendra | redis | memory
	IndexID            string        `mapstructure:"index_id"` // Kendra 索引 ID（环境变量 kendra_index_id）
	TopK               int           `mapstructure:"top_k"`
	Endpoint           string        `mapstructure:"endpoint"` // 可选，覆盖 Kendra endpoint（VPC endpoint / localstack）
	MinScoreConfidence string        `mapstructure:"min_score_confidence"`
	CallTimeout        time.Duration `mapstructure:"call_timeout"`
	SeedFile           string        `mapstructure:"seed_file"` // memory 后端启动时加载的文档 JSON
	Redis              RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis Stack 向量检索配置（type=redis）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	Index    string `mapstructure:"index"`
}

// ModelConfig 模型配置：family 选择 provider 策略，condense/answer 为两个角色
type ModelConfig struct {
	Family      string          `mapstructure:"family"`   // claude | ai21 | openai | anthropic
	Endpoint    string          `mapstructure:"endpoint"` // Bedrock runtime endpoint，空则按 region 推导
	APIKey      string          `mapstructure:"api_key"`  // openai / anthropic 使用，支持 ${ENV}
	BaseURL     string          `mapstructure:"base_url"`
	CallTimeout time.Duration   `mapstructure:"call_timeout"`
	MaxRetries  int             `mapstructure:"max_retries"`
	Condense    ModelRoleConfig `mapstructure:"condense"`
	Answer      ModelRoleConfig `mapstructure:"answer"`
	Embedding   EmbeddingConfig `mapstructure:"embedding"`
}

// ModelRoleConfig 单个角色的模型与解码参数；为空时使用 family 默认值
type ModelRoleConfig struct {
	ID          string  `mapstructure:"id"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig Embedding 模型（redis/memory 检索后端使用）
type EmbeddingConfig struct {
	ID string `mapstructure:"id"`
}

// MaxHistoryTurns 会话属性中最多保留的历史轮次
const MaxHistoryTurns = 3

// HistoryConfig 对话历史策略
type HistoryConfig struct {
	MaxTurns         int  `mapstructure:"max_turns"`
	AppendEmptyInput bool `mapstructure:"append_empty_input"`
	RecordAnswers    bool `mapstructure:"record_answers"`
}

// HandlerConfig 单次请求的整体时限（须小于 Lex 的上游超时）
type HandlerConfig struct {
	Deadline time.Duration `mapstructure:"deadline"`
}

// APIConfig 本地 HTTP 服务配置
type APIConfig struct {
	Port      int     `mapstructure:"port"`
	Host      string  `mapstructure:"host"`
	RateLimit float64 `mapstructure:"rate_limit"` // fulfill 接口每秒请求数，0 不限
	Burst     int     `mapstructure:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// RateLimitsConfig 限流配置（按 LLM provider）
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

const (
	RetrievalKendra = "kendra"
	RetrievalRedis  = "redis"
	RetrievalMemory = "memory"
)

const (
	FamilyClaude    = "claude"
	FamilyAI21      = "ai21"
	FamilyOpenAI    = "openai"
	FamilyAnthropic = "anthropic"
)

// setDefaults 写入默认值；Lambda 下通常无配置文件，全部依赖默认值与环境变量
func setDefaults(v *viper.Viper) {
	v.SetDefault("retrieval.type", RetrievalKendra)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.call_timeout", 5*time.Second)
	v.SetDefault("retrieval.redis.addr", "localhost:6379")
	v.SetDefault("retrieval.redis.index", "default")
	v.SetDefault("model.family", FamilyClaude)
	v.SetDefault("model.call_timeout", 20*time.Second)
	v.SetDefault("model.max_retries", 1)
	v.SetDefault("model.condense.temperature", 0.7)
	v.SetDefault("model.answer.temperature", 0.7)
	v.SetDefault("model.embedding.id", "amazon.titan-embed-text-v1")
	v.SetDefault("history.max_turns", MaxHistoryTurns)
	v.SetDefault("history.append_empty_input", true)
	v.SetDefault("history.record_answers", false)
	v.SetDefault("handler.deadline", 25*time.Second)
	v.SetDefault("api.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitoring.tracing.service_name", "lexbot")

	// 与原部署保持一致的环境变量名
	_ = v.BindEnv("aws.region", "aws_region", "AWS_REGION")
	_ = v.BindEnv("retrieval.index_id", "kendra_index_id", "KENDRA_INDEX_ID")
}

// LoadConfig 加载配置；configPath 为空时只读取默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// replaceEnvVars 替换 ${VAR} 形式的密钥配置
func replaceEnvVars(config *Config) {
	config.Model.APIKey = expandEnv(config.Model.APIKey)
	config.Retrieval.Redis.Password = expandEnv(config.Retrieval.Redis.Password)
}

func expandEnv(s string) string {
	if !strings.HasPrefix(s, "$") {
		return s
	}
	envVar := strings.TrimPrefix(strings.TrimSuffix(s, "}"), "${")
	envVar = strings.TrimPrefix(envVar, "$")
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return s
}

// Validate 校验必填项与枚举值
func (c *Config) Validate() error {
	switch c.Retrieval.Type {
	case RetrievalKendra:
		if c.AWS.Region == "" {
			return fmt.Errorf("aws.region 未配置（环境变量 aws_region）")
		}
		if c.Retrieval.IndexID == "" {
			return fmt.Errorf("retrieval.index_id 未配置（环境变量 kendra_index_id）")
		}
	case RetrievalRedis, RetrievalMemory:
	default:
		return fmt.Errorf("unsupported retrieval type: %q", c.Retrieval.Type)
	}

	switch c.Model.Family {
	case FamilyClaude, FamilyAI21:
		if c.AWS.Region == "" && c.Model.Endpoint == "" {
			return fmt.Errorf("model family %q 需要 aws.region 或 model.endpoint", c.Model.Family)
		}
	case FamilyOpenAI, FamilyAnthropic:
		if c.Model.APIKey == "" {
			return fmt.Errorf("model family %q 需要 model.api_key", c.Model.Family)
		}
	default:
		return fmt.Errorf("unsupported model family: %q", c.Model.Family)
	}

	if c.History.MaxTurns <= 0 || c.History.MaxTurns > MaxHistoryTurns {
		return fmt.Errorf("history.max_turns 必须在 1 到 %d 之间: %d", MaxHistoryTurns, c.History.MaxTurns)
	}
	return nil
}

// LoadLambdaConfig Lambda 运行时加载配置（仅环境变量，LEXBOT_CONFIG 可指定文件）
func LoadLambdaConfig() (*Config, error) {
	return LoadConfig(os.Getenv("LEXBOT_CONFIG"))
}

// LoadAPIConfig 加载本地 API 服务配置（configs/api.yaml + 环境变量）
func LoadAPIConfig() (*Config, error) {
	path := "configs/api.yaml"
	if p := os.Getenv("LEXBOT_CONFIG"); p != "" {
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return LoadConfig("")
	}
	return LoadConfig(path)
}
