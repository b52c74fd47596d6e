package service

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
)

// ViTConfig 架构配置（HuggingFace config.json 的子集）
type ViTConfig struct {
	ImageSize   int               `json:"image_size"`
	PatchSize   int               `json:"patch_size"`
	NumChannels int               `json:"num_channels"`
	NumLabels   int               `json:"num_labels"`
	ID2Label    map[string]string `json:"id2label"`
}

// LoadViTConfig 读取架构配置；分类头固定为 5 类，与文件中的 num_labels 无关
func LoadViTConfig(path string) (*ViTConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vit config: %w", err)
	}

	var cfg ViTConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse vit config: %w", err)
	}

	if cfg.ImageSize == 0 {
		cfg.ImageSize = 224
	}
	if cfg.PatchSize == 0 {
		cfg.PatchSize = 16
	}
	if cfg.NumChannels == 0 {
		cfg.NumChannels = 3
	}
	if cfg.NumChannels != 3 {
		return nil, fmt.Errorf("unsupported num_channels %d, expected 3", cfg.NumChannels)
	}
	if cfg.ImageSize%cfg.PatchSize != 0 {
		return nil, fmt.Errorf("image_size %d is not a multiple of patch_size %d", cfg.ImageSize, cfg.PatchSize)
	}
	cfg.NumLabels = model.NumLabels

	return &cfg, nil
}

// InputLen 单张图片输入张量的元素个数
func (c *ViTConfig) InputLen() int {
	return c.NumChannels * c.ImageSize * c.ImageSize
}
