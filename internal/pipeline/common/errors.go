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

import (
	"errors"
	"fmt"
)

// 定义 Pipeline 相关错误
var (
	ErrInvalidInput     = errors.New("无效的输入")
	ErrCondenseFailed   = errors.New("问题改写失败")
	ErrRetrievalFailed  = errors.New("检索失败")
	ErrGenerationFailed = errors.New("生成失败")
	ErrTimeout          = errors.New("超时")
)

// PipelineError Pipeline 错误结构体
type PipelineError struct {
	Stage   Stage
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[Pipeline] %s 阶段错误: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[Pipeline] %s 阶段错误: %s", e.Stage, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrRetrievalFailed) 等按阶段匹配
func (e *PipelineError) Is(target error) bool {
	return target == e.Stage.sentinel()
}

// NewPipelineError 创建新的 Pipeline 错误
func NewPipelineError(stage Stage, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// IsPipelineError 检查是否为 Pipeline 错误
func IsPipelineError(err error) bool {
	var pipelineErr *PipelineError
	return errors.As(err, &pipelineErr)
}

// GetPipelineError 获取 Pipeline 错误
func GetPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

func (s Stage) sentinel() error {
	switch s {
	case StageCondense:
		return ErrCondenseFailed
	case StageRetrieve:
		return ErrRetrievalFailed
	case StageGenerate:
		return ErrGenerationFailed
	default:
		return nil
	}
}
