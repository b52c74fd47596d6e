package service

import (
	"math"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
)

const (
	StatusSuccess  = "Success"
	StatusFallback = "Fallback LLM response"
)

// BuildEnvelope 组装统一响应，耗时保留三位小数（秒）
func BuildEnvelope(data model.NarrativeResult, statusCode string, statusMessage string, start time.Time) model.ResponseEnvelope {
	elapsed := time.Since(start).Seconds()
	return model.ResponseEnvelope{
		Response:   data,
		Status:     statusMessage,
		StatusCode: statusCode,
		TimeTaken:  math.Round(elapsed*1000) / 1000,
	}
}
