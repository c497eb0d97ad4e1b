package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MockStorage keeps objects on the local filesystem for development and
// tests, mimicking the public-URL contract of the S3 implementation.
type MockStorage struct {
	baseURL   string
	uploadDir string
}

func NewMockStorage(baseURL, uploadDir string) (*MockStorage, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &MockStorage{
		baseURL:   strings.TrimRight(baseURL, "/"),
		uploadDir: uploadDir,
	}, nil
}

func (s *MockStorage) Upload(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	path := filepath.Join(s.uploadDir, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write file %s: %w", key, err)
	}
	return s.baseURL + "/files/" + key, nil
}

func (s *MockStorage) Delete(_ context.Context, key string) error {
	path := filepath.Join(s.uploadDir, filepath.Clean(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file %s: %w", key, err)
	}
	return nil
}

// FilePath resolves a key to its on-disk location for the download handler.
func (s *MockStorage) FilePath(key string) string {
	return filepath.Join(s.uploadDir, filepath.Clean(key))
}
