package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage 文件存储抽象；KYC 材料与 CMS 资源共用
type Storage interface {
	// Save 写入文件并返回存储引用
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
	// Open 按引用读取文件
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete 删除文件
	Delete(ctx context.Context, ref string) error
}

// LocalStorage 本地目录实现
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

func (s *LocalStorage) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	ref := filepath.Join(sanitize(category), uuid.NewString()+ext)

	full := filepath.Join(s.baseDir, ref)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create category dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	return ref, nil
}

func (s *LocalStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// resolve 拼接并校验路径，拒绝目录穿越
func (s *LocalStorage) resolve(ref string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.Clean("/"+ref))
	if !strings.HasPrefix(full, s.baseDir) {
		return "", fmt.Errorf("invalid storage ref: %s", ref)
	}
	return full, nil
}

func sanitize(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "misc"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, category)
}
