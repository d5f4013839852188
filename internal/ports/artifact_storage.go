package ports

import "context"

type ArtifactStorage interface {
	// Store writes data under the run and returns the stored path.
	Store(ctx context.Context, runID, name string, data []byte) (storedPath string, err error)
	// StoreFile copies an existing file under the run.
	StoreFile(ctx context.Context, runID, name, sourcePath string) (storedPath string, err error)
	Get(ctx context.Context, runID, name string) ([]byte, error)
	Exists(ctx context.Context, runID, name string) (bool, error)
	// DeleteRun removes every artifact stored under the run.
	DeleteRun(ctx context.Context, runID string) error
}
