package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pricelens/internal/atomicfile"
)

// FileKV stores each key as <dir>/<key>.json.
type FileKV struct {
	dir string
}

// NewFileKV creates dir if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Path returns the file holding key.
func (f *FileKV) Path(key string) string {
	key = strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Set replaces the file via rename so readers never see a partial write.
func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	return atomicfile.Write(f.Path(key), value)
}

func (f *FileKV) Close() error { return nil }
