package llm

import (
	"encoding/json"
	"strings"
)

// ai21Codec Bedrock 上 AI21 Jurassic-2 格式
type ai21Codec struct{}

type ai21Request struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"maxTokens"`
	Temperature   float64  `json:"temperature"`
	NumResults    int      `json:"numResults"`
	TopP          float64  `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type ai21Response struct {
	Completions []struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	} `json:"completions"`
}

// NewAI21Client 创建 Bedrock AI21 客户端
func NewAI21Client(api InvokeModelAPI, model string) (*BedrockClient, error) {
	if model == "" {
		model = "ai21.j2-ultra-v1"
	}
	return newBedrockClient(api, FamilyAI21, model, ai21Codec{})
}

func (ai21Codec) Encode(prompt string, options GenerateOptions) ([]byte, error) {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	n := options.NumResults
	if n <= 0 {
		n = 1
	}
	return json.Marshal(ai21Request{
		Prompt:        prompt,
		MaxTokens:     maxTokens,
		Temperature:   options.Temperature,
		NumResults:    n,
		TopP:          options.TopP,
		StopSequences: options.Stop,
	})
}

func (ai21Codec) Decode(body []byte) (string, error) {
	var resp ai21Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Completions) == 0 || strings.TrimSpace(resp.Completions[0].Data.Text) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Completions[0].Data.Text, nil
}
