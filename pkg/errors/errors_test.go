package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil, "msg") != nil {
		t.Error("Wrap(nil, msg) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrap(err, "context")
	if wrapped == nil {
		t.Fatal("Wrap(err, msg) should not return nil")
	}
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "format %s", "x") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrapf(err, "id=%s", "a")
	if wrapped == nil {
		t.Fatal("Wrapf(err, ...) should not return nil")
	}
	if wrapped.Error() != "id=a: base" {
		t.Errorf("Wrapf message = %q", wrapped.Error())
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(fmt.Errorf("kendra: %w", context.DeadlineExceeded)) {
		t.Error("wrapped DeadlineExceeded should be a timeout")
	}
	if !IsTimeout(context.Canceled) {
		t.Error("Canceled should be a timeout")
	}
	if IsTimeout(ErrNotFound) {
		t.Error("ErrNotFound is not a timeout")
	}
}
