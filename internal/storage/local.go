package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps objects as files below baseDir.
type LocalStore struct {
	baseDir    string
	publicBase string
	logger     *zap.Logger
}

func NewLocalStore(baseDir, publicBase string, logger *zap.Logger) *LocalStore {
	return &LocalStore{baseDir: baseDir, publicBase: publicBase, logger: logger}
}

func (s *LocalStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o644); err != nil {
		s.logger.Error("Failed to write object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write object: %w", err)
	}

	s.logger.Debug("Object stored", zap.String("key", key), zap.Int("size", len(body)), zap.String("content_type", contentType))
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return body, nil
}

// Delete is idempotent.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	if s.publicBase == "" {
		return "/files/" + key
	}
	return strings.TrimRight(s.publicBase, "/") + "/" + key
}

// resolve maps key below baseDir and rejects keys that escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("key escapes storage directory: %s", key)
	}
	return absPath, nil
}
