package util

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "poisonbench"

// GetXDGDataDir returns the XDG data directory for poisonbench.
// It respects XDG_DATA_HOME if set, otherwise falls back to ~/.local/share/poisonbench
func GetXDGDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "share", appName), nil
}

// DefaultTrackingURI points at the local tracking store file.
func DefaultTrackingURI() (string, error) {
	dir, err := GetXDGDataDir()
	if err != nil {
		return "", err
	}
	return "file:" + filepath.Join(dir, "tracking.db"), nil
}

// DefaultArtifactRoot is where run artifacts live when not configured.
func DefaultArtifactRoot() (string, error) {
	dir, err := GetXDGDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "artifacts"), nil
}
