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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/kendra/types"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// KendraRetrieveAPI kendra.Client 中用到的方法，便于测试替换
type KendraRetrieveAPI interface {
	Retrieve(ctx context.Context, params *kendra.RetrieveInput, optFns ...func(*kendra.Options)) (*kendra.RetrieveOutput, error)
}

// 文档元数据键
const (
	MetaTitle           = "title"
	MetaSource          = "source"
	MetaDocumentID      = "document_id"
	MetaScoreConfidence = "score_confidence"
)

// Kendra 单次 Retrieve 的 PageSize 上限
const kendraMaxPageSize = 100

// KendraRetrieverConfig KendraRetriever 构造参数
type KendraRetrieverConfig struct {
	Client  KendraRetrieveAPI
	IndexID string
	TopK    int
	// MinScoreConfidence 为空时不过滤；否则丢弃置信度低于该档位的段落
	MinScoreConfidence string
}

// KendraRetriever 基于 Kendra Retrieve API 的 Eino retriever.Retriever
type KendraRetriever struct {
	client   KendraRetrieveAPI
	indexID  string
	topK     int
	minScore float64
}

var _ einoretriever.Retriever = (*KendraRetriever)(nil)

// NewKendraRetriever 创建 KendraRetriever
func NewKendraRetriever(cfg *KendraRetrieverConfig) (*KendraRetriever, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, fmt.Errorf("KendraRetriever requires Client")
	}
	if cfg.IndexID == "" {
		return nil, fmt.Errorf("KendraRetriever requires IndexID")
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	if topK > kendraMaxPageSize {
		topK = kendraMaxPageSize
	}
	minScore := 0.0
	if cfg.MinScoreConfidence != "" {
		s, ok := confidenceScores[types.ScoreConfidence(strings.ToUpper(cfg.MinScoreConfidence))]
		if !ok {
			return nil, fmt.Errorf("unknown score confidence %q", cfg.MinScoreConfidence)
		}
		minScore = s
	}
	return &KendraRetriever{
		client:   cfg.Client,
		indexID:  cfg.IndexID,
		topK:     topK,
		minScore: minScore,
	}, nil
}

var confidenceScores = map[types.ScoreConfidence]float64{
	types.ScoreConfidenceVeryHigh: 1.0,
	types.ScoreConfidenceHigh:     0.75,
	types.ScoreConfidenceMedium:   0.5,
	types.ScoreConfidenceLow:      0.25,
}

// ConfidenceScore 将 Kendra 置信度档位映射为 [0,1] 分值，未知档位为 0
func ConfidenceScore(c types.ScoreConfidence) float64 {
	return confidenceScores[c]
}

// Retrieve 实现 github.com/cloudwego/eino/components/retriever.Retriever；
// 结果保持 Kendra 的相关度顺序，不做重排
func (r *KendraRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(nil, opts...)
	topK := r.topK
	if options != nil && options.TopK != nil && *options.TopK > 0 && *options.TopK <= kendraMaxPageSize {
		topK = *options.TopK
	}
	minScore := r.minScore
	if options != nil && options.ScoreThreshold != nil {
		minScore = *options.ScoreThreshold
	}

	out, err := r.client.Retrieve(ctx, &kendra.RetrieveInput{
		IndexId:   aws.String(r.indexID),
		QueryText: aws.String(query),
		PageSize:  aws.Int32(int32(topK)),
	})
	if err != nil {
		return nil, fmt.Errorf("kendra retrieve: %w", err)
	}

	docs := make([]*schema.Document, 0, len(out.ResultItems))
	for _, item := range out.ResultItems {
		excerpt := strings.TrimSpace(aws.ToString(item.Content))
		if excerpt == "" {
			continue
		}
		var confidence types.ScoreConfidence
		if item.ScoreAttributes != nil {
			confidence = item.ScoreAttributes.ScoreConfidence
		}
		score := ConfidenceScore(confidence)
		if score < minScore {
			continue
		}

		title := aws.ToString(item.DocumentTitle)
		id := aws.ToString(item.Id)
		if id == "" {
			id = aws.ToString(item.DocumentId)
		}
		d := &schema.Document{
			ID:      id,
			Content: CombinedText(title, excerpt),
			MetaData: map[string]any{
				MetaTitle:           title,
				MetaSource:          aws.ToString(item.DocumentURI),
				MetaDocumentID:      aws.ToString(item.DocumentId),
				MetaScoreConfidence: string(confidence),
			},
		}
		d.WithScore(score)
		docs = append(docs, d)
		if len(docs) == topK {
			break
		}
	}
	return docs, nil
}

// CombinedText 段落正文前附标题，与回答模板的 context 一起送给模型
func CombinedText(title, excerpt string) string {
	if title == "" {
		return excerpt
	}
	return "Document Title: " + title + "\nDocument Excerpt: \n" + excerpt
}
