package service

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifierNotReady 分类器未能在启动时初始化
	ErrClassifierNotReady = errors.New("classifier not initialized")

	// ErrNarratorNotReady LLM 客户端未能在启动时初始化
	ErrNarratorNotReady = errors.New("narrator not initialized")

	// ErrQueueTimeout 推理会话排队超时
	ErrQueueTimeout = errors.New("inference queue timeout")

	// ErrRemoteStatus 远程模型返回非 2xx 状态码
	ErrRemoteStatus = errors.New("remote model returned error status")

	// ErrUnexpectedResponse 远程模型返回结构不符合预期（无 content）
	ErrUnexpectedResponse = errors.New("unexpected LLM API response format")
)

// StorageError 临时文件读写失败，不可恢复
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ClassificationError 分类失败，触发 LLM 兜底分支
type ClassificationError struct {
	Op  string
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification %s: %v", e.Op, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// NarrationError 远程模型调用或响应解析失败，不重试
type NarrationError struct {
	Op  string
	Err error
}

func (e *NarrationError) Error() string {
	return fmt.Sprintf("narration %s: %v", e.Op, e.Err)
}

func (e *NarrationError) Unwrap() error { return e.Err }

// IsClassificationError reports whether err carries a *ClassificationError.
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
