package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ ResumeObjectStore = (*LocalStore)(nil)

// LocalStore 未配置对象存储时把原始简历写到本地目录
type LocalStore struct {
	dir string
}

// NewLocalStore 创建目录（如不存在）
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload.local_dir 未配置")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析目录 %s 失败: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("创建目录 %s 失败: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

// Dir 返回根目录
func (s *LocalStore) Dir() string {
	return s.dir
}

// PutResume 写入 dir/key；key 不能跳出根目录
func (s *LocalStore) PutResume(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("对象键不能为空")
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("非法的对象键: %s", key)
	}
	return path, nil
}
