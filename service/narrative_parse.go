package service

import (
	"strings"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
)

const (
	decisionMarker      = "decision:"
	justificationMarker = "Justification:"

	unknownDecision = "Unknown"
)

// ParseNarrative 按首次出现的标记切分模型回复。
// 两个标记都存在时：decision 取两者之间，justification 取 Justification: 之后；
// 否则整段回复作为 justification。label 非空时总是覆盖 decision。
// 标记之间为空且无 label 时 decision 为 "Unknown"，不返回空串。
func ParseNarrative(text string, label string) model.NarrativeResult {
	di := strings.Index(text, decisionMarker)
	ji := strings.Index(text, justificationMarker)

	if di < 0 || ji < 0 {
		return model.NarrativeResult{
			Decision:      orDefault(label, unknownDecision),
			Justification: text,
		}
	}

	var decision string
	if start := di + len(decisionMarker); start <= ji {
		decision = strings.TrimSpace(text[start:ji])
	}
	justification := strings.TrimSpace(text[ji+len(justificationMarker):])

	if label != "" {
		decision = label
	}

	return model.NarrativeResult{
		Decision:      orDefault(decision, unknownDecision),
		Justification: justification,
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
