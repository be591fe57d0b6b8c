package managers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StorageMgr is the blob store facade for vehicle document uploads. Save
// returns an opaque relative path; the database holds only that path.
type StorageMgr interface {
	Save(name string, content io.Reader) (string, error)
	Delete(relativePath string) error
}

// DiskStorageManager stores blobs under a local uploads directory.
type DiskStorageManager struct {
	baseDir string
}

// NewDiskStorageManager creates the uploads directory when missing.
func NewDiskStorageManager() (*DiskStorageManager, error) {
	baseDir := os.Getenv("UPLOADS_DIR")
	if baseDir == "" {
		baseDir = "uploads"
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}

	log.Info("Initialized disk storage at ", baseDir)
	return &DiskStorageManager{baseDir: baseDir}, nil
}

// Save writes the blob under a random name preserving the extension and
// returns the path relative to the uploads directory.
func (sm *DiskStorageManager) Save(name string, content io.Reader) (string, error) {
	relative := uuid.New().String() + filepath.Ext(name)

	file, err := os.Create(filepath.Join(sm.baseDir, relative))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}

	return relative, nil
}

// Delete removes a previously saved blob. Missing files are not an error so
// rollback paths stay idempotent.
func (sm *DiskStorageManager) Delete(relativePath string) error {
	err := os.Remove(filepath.Join(sm.baseDir, relativePath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
