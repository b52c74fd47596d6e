package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID 生成请求级唯一标识（无连字符的 UUIDv4）
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
