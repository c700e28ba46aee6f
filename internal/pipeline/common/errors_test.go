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
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		e := NewPipelineError(StageRetrieve, "kendra", nil)
		if e.Error() == "" {
			t.Error("Error() should not be empty")
		}
		if !errors.As(e, new(*PipelineError)) {
			t.Error("should be *PipelineError")
		}
	})
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("io error")
		e := NewPipelineError(StageGenerate, "bedrock", cause)
		if e.Error() == "" {
			t.Error("Error() should not be empty")
		}
		if e.Unwrap() != cause {
			t.Error("Unwrap() should return cause")
		}
		if !errors.Is(e, cause) {
			t.Error("errors.Is should reach cause")
		}
	})
}

func TestPipelineError_IsStageSentinel(t *testing.T) {
	cases := map[Stage]error{
		StageCondense: ErrCondenseFailed,
		StageRetrieve: ErrRetrievalFailed,
		StageGenerate: ErrGenerationFailed,
	}
	for stage, want := range cases {
		var err error = NewPipelineError(stage, "x", errors.New("cause"))
		if !errors.Is(err, want) {
			t.Errorf("stage %s: errors.Is(%v) = false", stage, want)
		}
	}
	if errors.Is(NewPipelineError(StageRetrieve, "x", nil), ErrGenerationFailed) {
		t.Error("retrieve error should not match generation sentinel")
	}
}

func TestIsPipelineError_GetPipelineError(t *testing.T) {
	e := NewPipelineError(StageCondense, "msg", nil)
	if !IsPipelineError(e) {
		t.Error("IsPipelineError should be true")
	}
	got, ok := GetPipelineError(e)
	if !ok || got != e {
		t.Errorf("GetPipelineError: ok=%v got=%v", ok, got)
	}
	if IsPipelineError(errors.New("other")) {
		t.Error("IsPipelineError(other) should be false")
	}
	_, ok = GetPipelineError(errors.New("other"))
	if ok {
		t.Error("GetPipelineError(other) should be false")
	}
}
