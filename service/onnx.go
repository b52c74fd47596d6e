package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	ort "github.com/yalue/onnxruntime_go"
)

// Runtime 执行一次前向推理，返回 logits
type Runtime interface {
	Run(ctx context.Context, input []float32) ([]float32, error)
}

type onnxSession struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func (s *onnxSession) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// ONNXRuntime 预分配 max_concurrent 个会话，通过带缓冲 channel 分发。
// 每个会话独占输入输出张量，同一时刻只服务一个请求。
type ONNXRuntime struct {
	slots        chan *onnxSession
	sessions     []*onnxSession
	queueTimeout time.Duration
	inputLen     int
}

func NewONNXRuntime(cfg *config.ClassifierConfig, arch *ViTConfig) (*ONNXRuntime, error) {
	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputShape := ort.NewShape(1, int64(arch.NumChannels), int64(arch.ImageSize), int64(arch.ImageSize))
	outputShape := ort.NewShape(1, int64(model.NumLabels))

	r := &ONNXRuntime{
		slots:        make(chan *onnxSession, cfg.MaxConcurrent),
		queueTimeout: cfg.QueueTimeout,
		inputLen:     arch.InputLen(),
	}

	for i := 0; i < cfg.MaxConcurrent; i++ {
		s, err := newONNXSession(cfg, inputShape, outputShape)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.sessions = append(r.sessions, s)
		r.slots <- s
	}

	return r, nil
}

func newONNXSession(cfg *config.ClassifierConfig, inputShape, outputShape ort.Shape) (*onnxSession, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxSession{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Run 获取空闲会话并推理，排队超过 queue_timeout 返回 ErrQueueTimeout
func (r *ONNXRuntime) Run(ctx context.Context, input []float32) ([]float32, error) {
	if len(input) != r.inputLen {
		return nil, fmt.Errorf("input length %d does not match model input %d", len(input), r.inputLen)
	}

	waitCtx := ctx
	if r.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.queueTimeout)
		defer cancel()
	}

	var s *onnxSession
	select {
	case s = <-r.slots:
		defer func() { r.slots <- s }()
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrQueueTimeout
	}

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	logits := make([]float32, len(s.outputTensor.GetData()))
	copy(logits, s.outputTensor.GetData())
	return logits, nil
}

func (r *ONNXRuntime) Close() {
	for _, s := range r.sessions {
		s.destroy()
	}
	r.sessions = nil
	ort.DestroyEnvironment()
}
