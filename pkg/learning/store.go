package learning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ModelStore persists fitted models under a name
type ModelStore interface {
	Save(ctx context.Context, name string, m *Model) error
	Load(ctx context.Context, name string) (*Model, error)
	Close() error
}

// FileStore keeps one JSON snapshot per model name in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the snapshot path for name
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.dir, name+".json")
}

// Save writes the snapshot atomically through a temporary file
func (fs *FileStore) Save(ctx context.Context, name string, m *Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}

	path := fs.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move model file into place: %w", err)
	}
	return nil
}

// Load reads the snapshot for name
func (fs *FileStore) Load(ctx context.Context, name string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(fs.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, fs.Path(name))
		}
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Close is a no-op for file storage
func (fs *FileStore) Close() error {
	return nil
}

var (
	_ ModelStore = (*FileStore)(nil)
	_ ModelStore = (*RedisStore)(nil)
	_ ModelStore = (*SQLStore)(nil)
)
