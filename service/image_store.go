package service

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// tempPrefix 临时文件统一前缀，启动清理只匹配该前缀
const tempPrefix = "ecg_"

// ImageStore 管理单次请求的临时图片文件
type ImageStore struct {
	dir string
}

func NewImageStore(cfg *config.UploadConfig) (*ImageStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: cfg.UploadDir, Err: err}
	}
	return &ImageStore{dir: cfg.UploadDir}, nil
}

// Store 写入上传内容，文件名由请求级 ID 生成，仅保留客户端扩展名
func (s *ImageStore) Store(src io.Reader, filename string) (string, error) {
	path := filepath.Join(s.dir, tempPrefix+utils.GenerateID()+safeExt(filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", &StorageError{Op: "create", Path: path, Err: err}
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", &StorageError{Op: "write", Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &StorageError{Op: "close", Path: path, Err: err}
	}

	return path, nil
}

// Delete 删除临时文件，文件不存在视为成功
func (s *ImageStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// Sweep 清理上次进程遗留的临时文件
func (s *ImageStore) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, &StorageError{Op: "sweep", Path: s.dir, Err: err}
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			utils.Logger.Warn("failed to sweep temp file", zap.String("file", path), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}

func (s *ImageStore) Dir() string {
	return s.dir
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
