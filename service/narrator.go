package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// Narrator 调用远程多模态模型生成结论与依据
type Narrator struct {
	client       LLMClient
	maxTokens    int
	temperature  float64
	readTimeout  time.Duration
	maxImageEdge int
}

func NewNarrator(client LLMClient, cfg *config.NarratorConfig) *Narrator {
	return &Narrator{
		client:       client,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		readTimeout:  cfg.ReadTimeout,
		maxImageEdge: cfg.MaxImageEdge,
	}
}

// Ready reports whether a transport is configured.
func (n *Narrator) Ready() bool {
	return n != nil && n.client != nil
}

// Narrate 生成分析结论。label 为空时使用无标签提示词。
func (n *Narrator) Narrate(ctx context.Context, imageBase64 string, label string) (*model.NarrativeResult, error) {
	if !n.Ready() {
		return nil, &NarrationError{Op: "init", Err: ErrNarratorNotReady}
	}

	mode := "labeled"
	if label == "" {
		mode = "unlabeled"
	}

	req := &MessagesRequest{
		MaxTokens:   n.maxTokens,
		System:      systemPrompt,
		Temperature: n.temperature,
		Messages: []Message{{
			Role: "user",
			Content: []ContentBlock{
				{
					Type: "image",
					Source: &ImageSource{
						Type:      "base64",
						MediaType: "image/jpeg",
						Data:      normalizeForLLM(imageBase64, n.maxImageEdge),
					},
				},
				{Type: "text", Text: promptFor(label)},
			},
		}},
	}

	callCtx := ctx
	if n.readTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.readTimeout)
		defer cancel()
	}

	start := time.Now()
	body, err := n.client.Invoke(callCtx, req)
	if err != nil {
		op := "invoke"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			op = "timeout"
		}
		utils.Logger.Error("llm call failed",
			zap.String("provider", n.client.Name()),
			zap.String("mode", mode),
			zap.String("op", op),
			zap.Error(err))
		return nil, &NarrationError{Op: op, Err: err}
	}

	text, resp, err := extractText(body)
	if err != nil {
		utils.Logger.Error("unexpected llm response", zap.String("provider", n.client.Name()), zap.Error(err))
		return nil, &NarrationError{Op: "decode", Err: err}
	}

	utils.Logger.Info("llm response received",
		zap.String("provider", n.client.Name()),
		zap.String("mode", mode),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("cost", time.Since(start)))

	if !strings.Contains(text, decisionMarker) || !strings.Contains(text, justificationMarker) {
		utils.Logger.Warn("response format does not contain expected fields", zap.String("mode", mode))
	}

	result := ParseNarrative(text, label)
	return &result, nil
}
