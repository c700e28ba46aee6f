package llm

import (
	"encoding/json"
	"strings"
)

const (
	humanPrompt     = "\n\nHuman:"
	assistantPrompt = "\n\nAssistant:"
)

// claudeCodec Bedrock 上 Anthropic Claude（v2 / instant）文本补全格式
type claudeCodec struct{}

type claudeRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p,omitempty"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
}

type claudeResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
}

// NewClaudeClient 创建 Bedrock Claude 客户端
func NewClaudeClient(api InvokeModelAPI, model string) (*BedrockClient, error) {
	if model == "" {
		model = "anthropic.claude-v2:1"
	}
	return newBedrockClient(api, FamilyClaude, model, claudeCodec{})
}

func (claudeCodec) Encode(prompt string, options GenerateOptions) ([]byte, error) {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	stop := options.Stop
	if len(stop) == 0 {
		stop = []string{humanPrompt}
	}
	return json.Marshal(claudeRequest{
		Prompt:            humanAssistantFormat(prompt),
		MaxTokensToSample: maxTokens,
		Temperature:       options.Temperature,
		TopP:              options.TopP,
		StopSequences:     stop,
	})
}

func (claudeCodec) Decode(body []byte) (string, error) {
	var resp claudeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Completion) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Completion, nil
}

// humanAssistantFormat Claude 文本补全要求 prompt 以 "\n\nHuman:" 开头、以 "\n\nAssistant:" 结尾
func humanAssistantFormat(prompt string) string {
	p := strings.TrimLeft(prompt, " \t\r\n")
	if strings.HasPrefix(p, "Human:") {
		p = "\n\n" + p
	} else {
		p = humanPrompt + " " + p
	}
	p = strings.TrimRight(p, " \t\r\n")
	if !strings.HasSuffix(p, assistantPrompt) {
		p = strings.TrimSuffix(p, "Assistant:")
		p = strings.TrimRight(p, " \t\r\n") + assistantPrompt
	}
	return p
}
