package service

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// ImageClassifier 图片分类，失败时返回 *ClassificationError
type ImageClassifier interface {
	Classify(ctx context.Context, imagePath string) (*model.ClassificationResult, error)
	Ready() bool
}

// NarrativeGenerator 生成结论与依据，失败时返回 *NarrationError
type NarrativeGenerator interface {
	Narrate(ctx context.Context, imageBase64 string, label string) (*model.NarrativeResult, error)
	Ready() bool
}

// TempStore 单次请求的临时文件存储
type TempStore interface {
	Store(src io.Reader, filename string) (string, error)
	Delete(path string) error
}

// State 请求处理状态
type State string

const (
	StateReceived             State = "received"
	StateStored               State = "stored"
	StateClassified           State = "classified"
	StateClassificationFailed State = "classification_failed"
	StateNarrated             State = "narrated"
	StateNarratedFallback     State = "narrated_fallback"
	StateResponded            State = "responded"
)

const fallbackJustification = "Unable to provide justification"

// Analyzer 串联 存储 → 分类 → 生成 → 响应，分类失败时走无标签兜底
type Analyzer struct {
	store      TempStore
	classifier ImageClassifier
	narrator   NarrativeGenerator
}

func NewAnalyzer(store TempStore, classifier ImageClassifier, narrator NarrativeGenerator) *Analyzer {
	return &Analyzer{
		store:      store,
		classifier: classifier,
		narrator:   narrator,
	}
}

// Status 返回依赖模型的初始化状态
func (a *Analyzer) Status() model.ModelStatus {
	return model.ModelStatus{
		ViT: a.classifier != nil && a.classifier.Ready(),
		LLM: a.narrator != nil && a.narrator.Ready(),
	}
}

// Analyze 处理一次上传。返回的 HTTP 状态码与信封中的 statusCode 一致；
// error 非空表示硬失败（存储或生成失败），此时没有信封。
func (a *Analyzer) Analyze(ctx context.Context, src io.Reader, filename string) (*model.ResponseEnvelope, int, error) {
	start := time.Now()
	log := utils.Logger.With(zap.String("filename", filename))
	log.Info("received file")

	path, err := a.store.Store(src, filename)
	if err != nil {
		log.Error("failed to store upload", zap.Error(err))
		return nil, http.StatusInternalServerError, err
	}

	log = log.With(zap.String("temp_file", filepath.Base(path)))
	defer func() {
		if err := a.store.Delete(path); err != nil {
			log.Warn("failed to delete temp file", zap.Error(err))
		} else {
			log.Debug("temp file deleted")
		}
	}()

	if digest, err := utils.FileDigest(path); err == nil {
		log.Info("image saved", zap.String("sha256", digest))
	}
	transition(log, StateReceived, StateStored)

	if a.classifier == nil {
		return a.fallback(ctx, log, path, start, &ClassificationError{Op: "init", Err: ErrClassifierNotReady})
	}

	result, err := a.classifier.Classify(ctx, path)
	if err != nil {
		if !IsClassificationError(err) {
			log.Error("classifier returned unexpected error", zap.Error(err))
			return nil, http.StatusInternalServerError, err
		}
		return a.fallback(ctx, log, path, start, err)
	}
	transition(log, StateStored, StateClassified)

	narrative, err := a.narrate(ctx, result.ImageBase64, string(result.Label))
	if err != nil {
		log.Error("failed to generate narrative", zap.String("label", string(result.Label)), zap.Error(err))
		return nil, http.StatusInternalServerError, err
	}
	transition(log, StateClassified, StateNarrated)

	env := BuildEnvelope(*narrative, strconv.Itoa(http.StatusOK), StatusSuccess, start)
	transition(log, StateNarrated, StateResponded)
	log.Info("analysis completed", zap.String("decision", env.Response.Decision), zap.Float64("time_taken", env.TimeTaken))

	return &env, http.StatusOK, nil
}

// fallback 分类失败后的无标签分析。生成失败不再兜底，直接返回错误。
func (a *Analyzer) fallback(ctx context.Context, log *zap.Logger, path string, start time.Time, cause error) (*model.ResponseEnvelope, int, error) {
	log.Error("error processing image with ViT model", zap.Error(cause))
	transition(log, StateStored, StateClassificationFailed)

	encoded, err := utils.ImageToBase64(path)
	if err != nil {
		serr := &StorageError{Op: "read", Path: path, Err: err}
		log.Error("failed to read stored image", zap.Error(serr))
		return nil, http.StatusInternalServerError, serr
	}

	narrative, err := a.narrate(ctx, encoded, "")
	if err != nil {
		log.Error("fallback narrative failed", zap.Error(err))
		return nil, http.StatusInternalServerError, err
	}
	transition(log, StateClassificationFailed, StateNarratedFallback)

	data := model.NarrativeResult{
		Decision:      orDefault(narrative.Decision, unknownDecision),
		Justification: orDefault(narrative.Justification, fallbackJustification),
	}
	env := BuildEnvelope(data, strconv.Itoa(http.StatusInternalServerError), StatusFallback, start)
	transition(log, StateNarratedFallback, StateResponded)
	log.Info("fallback LLM response received", zap.Float64("time_taken", env.TimeTaken))

	return &env, http.StatusInternalServerError, nil
}

func (a *Analyzer) narrate(ctx context.Context, imageBase64, label string) (*model.NarrativeResult, error) {
	if a.narrator == nil {
		return nil, &NarrationError{Op: "init", Err: ErrNarratorNotReady}
	}
	return a.narrator.Narrate(ctx, imageBase64, label)
}

func transition(log *zap.Logger, from, to State) {
	log.Debug("state transition", zap.String("from", string(from)), zap.String("to", string(to)))
}
