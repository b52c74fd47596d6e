package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion      = "2023-06-01"
)

// AnthropicClient 直连 Anthropic Messages API
type AnthropicClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewAnthropicClient(cfg *config.NarratorConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("narrator.api_key is required for the anthropic provider")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}

	return &AnthropicClient{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.ModelID,
		// 超时由调用方 context 控制
		client: &http.Client{},
	}, nil
}

func (c *AnthropicClient) Name() string {
	return "anthropic:" + c.model
}

func (c *AnthropicClient) Invoke(ctx context.Context, req *MessagesRequest) ([]byte, error) {
	payload := *req
	payload.AnthropicVersion = ""
	payload.Model = c.model

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", anthropicAPIVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResponse struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errorResponse); err == nil && errorResponse.Error.Message != "" {
			return nil, fmt.Errorf("%w: status code %d: %s", ErrRemoteStatus, resp.StatusCode, errorResponse.Error.Message)
		}
		return nil, fmt.Errorf("%w: status code %d", ErrRemoteStatus, resp.StatusCode)
	}

	return respBody, nil
}
