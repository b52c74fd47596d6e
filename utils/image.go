package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ImageToBase64 读取文件并编码为标准 Base64
func ImageToBase64(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", imagePath, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Base64ToImage 解码 Base64，outputPath 非空时同时写入文件
func Base64ToImage(encoded string, outputPath string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o600); err != nil {
			return nil, fmt.Errorf("write image %s: %w", outputPath, err)
		}
	}

	return data, nil
}

// FileDigest 计算文件 SHA-256，仅用于日志追踪
func FileDigest(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
