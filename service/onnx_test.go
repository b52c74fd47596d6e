package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

// 空 slots 模拟所有会话都被占用
func newBusyRuntime(queueTimeout time.Duration) *ONNXRuntime {
	return &ONNXRuntime{
		slots:        make(chan *onnxSession),
		queueTimeout: queueTimeout,
		inputLen:     1,
	}
}

func TestONNXRuntimeQueueTimeout(t *testing.T) {
	_, err := newBusyRuntime(10*time.Millisecond).Run(context.Background(), []float32{0})
	if !errors.Is(err, ErrQueueTimeout) {
		t.Fatalf("expected ErrQueueTimeout, got %v", err)
	}
}

func TestONNXRuntimeCallerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newBusyRuntime(time.Hour).Run(ctx, []float32{0})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrQueueTimeout) {
		t.Error("caller cancellation must not be reported as queue timeout")
	}
}

func TestONNXRuntimeInputLength(t *testing.T) {
	if _, err := newBusyRuntime(time.Hour).Run(context.Background(), []float32{0, 1}); err == nil {
		t.Fatal("expected error for wrong input length")
	}
}
