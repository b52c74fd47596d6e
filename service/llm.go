package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
)

// LLMClient 远程多模态模型的传输层，实现需并发安全
type LLMClient interface {
	// Name 返回提供方名称，用于日志
	Name() string

	// Invoke 发送一次请求并返回原始响应体
	Invoke(ctx context.Context, req *MessagesRequest) ([]byte, error)
}

// MessagesRequest Anthropic Messages 请求体。
// Bedrock 使用 anthropic_version 且不带 model；直连 API 使用 model 与请求头版本。
type MessagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// extractText 取 content 数组第一个元素的 text
func extractText(body []byte) (string, *messagesResponse, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", nil, ErrUnexpectedResponse
	}
	return resp.Content[0].Text, &resp, nil
}

// NewLLMClient 按配置选择传输实现
func NewLLMClient(ctx context.Context, cfg *config.NarratorConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "anthropic":
		client, err := NewAnthropicClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "bedrock":
		client, err := NewBedrockClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported narrator provider %q", cfg.Provider)
	}
}
