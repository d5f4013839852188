package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStorage keeps run artifacts as plain files under
// <baseDir>/<runID>/<name>.
type ArtifactStorage struct {
	baseDir string
}

func NewArtifactStorage(baseDir string) (*ArtifactStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &ArtifactStorage{baseDir: baseDir}, nil
}

func (s *ArtifactStorage) Store(ctx context.Context, runID, name string, data []byte) (string, error) {
	destPath, err := s.prepare(runID, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return destPath, nil
}

func (s *ArtifactStorage) StoreFile(ctx context.Context, runID, name, sourcePath string) (string, error) {
	destPath, err := s.prepare(runID, name)
	if err != nil {
		return "", err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(dest, src); err != nil {
		_ = dest.Close()
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := dest.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	return destPath, nil
}

func (s *ArtifactStorage) Get(ctx context.Context, runID, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(runID, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

func (s *ArtifactStorage) Exists(ctx context.Context, runID, name string) (bool, error) {
	_, err := os.Stat(s.Path(runID, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *ArtifactStorage) DeleteRun(ctx context.Context, runID string) error {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == ".." || runID == "." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, runID)); err != nil {
		return fmt.Errorf("failed to delete run artifacts: %w", err)
	}
	return nil
}

// Path returns where an artifact of the run is stored.
func (s *ArtifactStorage) Path(runID, name string) string {
	return filepath.Join(s.baseDir, runID, name)
}

func (s *ArtifactStorage) prepare(runID, name string) (string, error) {
	if runID == "" || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q for run %q", name, runID)
	}
	if err := os.MkdirAll(filepath.Join(s.baseDir, runID), 0755); err != nil {
		return "", fmt.Errorf("failed to create run artifact directory: %w", err)
	}
	return s.Path(runID, name), nil
}
