package service

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// Classifier ViT 五分类器，初始化后只读，可被并发请求共享
type Classifier struct {
	runtime    Runtime
	imageSize  int
	preprocess func(imagePath string, size int) ([]float32, error)
}

func NewClassifier(runtime Runtime, arch *ViTConfig) *Classifier {
	return &Classifier{
		runtime:    runtime,
		imageSize:  arch.ImageSize,
		preprocess: loadTensor,
	}
}

// Ready reports whether the model was loaded.
func (c *Classifier) Ready() bool {
	return c != nil && c.runtime != nil
}

// Classify 对图片做一次前向推理，任何失败都包装为 *ClassificationError
func (c *Classifier) Classify(ctx context.Context, imagePath string) (*model.ClassificationResult, error) {
	if !c.Ready() {
		return nil, &ClassificationError{Op: "init", Err: ErrClassifierNotReady}
	}

	if _, err := os.Stat(imagePath); err != nil {
		return nil, &ClassificationError{Op: "open", Err: err}
	}

	start := time.Now()

	tensor, err := c.preprocess(imagePath, c.imageSize)
	if err != nil {
		return nil, &ClassificationError{Op: "preprocess", Err: err}
	}

	logits, err := c.runtime.Run(ctx, tensor)
	if err != nil {
		return nil, &ClassificationError{Op: "inference", Err: err}
	}
	if len(logits) != model.NumLabels {
		return nil, &ClassificationError{
			Op:  "shape",
			Err: fmt.Errorf("expected %d logits, got %d", model.NumLabels, len(logits)),
		}
	}

	label, ok := model.LabelAt(argmax(logits))
	if !ok {
		return nil, &ClassificationError{Op: "label", Err: fmt.Errorf("no label for logits %v", logits)}
	}

	encoded, err := utils.ImageToBase64(imagePath)
	if err != nil {
		return nil, &ClassificationError{Op: "encode", Err: err}
	}

	scores := softmax(logits)
	utils.Logger.Info("prediction completed",
		zap.String("label", string(label)),
		zap.Float32("confidence", scores[label]),
		zap.Duration("cost", time.Since(start)))

	return &model.ClassificationResult{
		Label:       label,
		ImageBase64: encoded,
		Scores:      scores,
	}, nil
}

func argmax(values []float32) int {
	maxIdx := 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

func softmax(logits []float32) map[model.Label]float32 {
	maxVal := logits[argmax(logits)]

	var sum float64
	exps := make([]float64, len(logits))
	for i, v := range logits {
		exps[i] = math.Exp(float64(v - maxVal))
		sum += exps[i]
	}

	scores := make(map[model.Label]float32, len(logits))
	for i, e := range exps {
		if label, ok := model.LabelAt(i); ok {
			scores[label] = float32(e / sum)
		}
	}
	return scores
}
