// Package archive persists the ordered list of exported comparison
// documents under a single key of a key-value backend.
package archive

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("archive: key not found")

// KV is the platform key-value primitive. Each call is atomic.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// PathKV is implemented by backends that keep each key in its own file.
type PathKV interface {
	KV
	Path(key string) string
}

// Backend names accepted by OpenKV.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// OpenKV opens the named backend. target is a database path for sqlite,
// a URL for redis and a directory for file.
func OpenKV(ctx context.Context, backend, target string) (KV, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteKV(target)
	case BackendRedis:
		return NewRedisKV(ctx, target)
	case BackendFile:
		return NewFileKV(target)
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", backend)
	}
}
