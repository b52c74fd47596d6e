package model

// Label ECG 诊断类别
type Label string

const (
	LabelMyocardialInfarction Label = "Myocardial Infarction"
	LabelAbnormalHeartbeats   Label = "Abnormal Heartbeats"
	LabelNormalHeartbeats     Label = "Normal Heartbeats"
	LabelHistoryOfMI          Label = "History of MI"
	LabelCovid19              Label = "Covid-19"
)

// Labels 模型输出下标到类别的固定映射，顺序与训练时一致
var Labels = [...]Label{
	LabelMyocardialInfarction,
	LabelAbnormalHeartbeats,
	LabelNormalHeartbeats,
	LabelHistoryOfMI,
	LabelCovid19,
}

// NumLabels 分类头输出维度
const NumLabels = len(Labels)

// LabelAt returns the label for a logits index.
func LabelAt(idx int) (Label, bool) {
	if idx < 0 || idx >= NumLabels {
		return "", false
	}
	return Labels[idx], true
}

// ClassificationResult 分类结果，仅在单次请求内使用
type ClassificationResult struct {
	Label       Label             `json:"label"`
	ImageBase64 string            `json:"-"`
	Scores      map[Label]float32 `json:"scores,omitempty"`
}

// NarrativeResult LLM 生成的结论与依据
type NarrativeResult struct {
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
}

// ResponseEnvelope 统一响应结构
type ResponseEnvelope struct {
	Response   NarrativeResult `json:"response"`
	Status     string          `json:"status"`
	StatusCode string          `json:"statusCode"`
	TimeTaken  float64         `json:"timeTaken"`
}

// ModelStatus 依赖模型的初始化状态
type ModelStatus struct {
	ViT bool `json:"vit"`
	LLM bool `json:"llm"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string      `json:"status"`
	Models ModelStatus `json:"models"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Detail string `json:"detail"`
}
