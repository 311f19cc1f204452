package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"pricelens/internal/logging"
	"pricelens/internal/types"
)

// DefaultKey is the entry the artifact list is stored under.
const DefaultKey = "savedPdfs"

// Store owns the ordered artifact list, newest first. It is the single
// handle shared by the exporter and the archive views.
type Store struct {
	mu        sync.RWMutex
	kv        KV
	key       string
	artifacts []types.Artifact
	listeners []func(n int)
	watcher   *watcher

	// version counts local mutations; lastSeen is the entry as last
	// written or loaded by this store.
	version  uint64
	lastSeen []byte
}

// Open loads the list stored under key. A missing entry starts an empty
// archive; an unreadable one is logged and also starts empty.
func Open(ctx context.Context, kv KV, key string) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{kv: kv, key: key}

	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	artifacts := s.decode(data)
	s.artifacts = artifacts
	s.lastSeen = data
	logging.Archive("opened archive %q with %d artifacts", key, len(artifacts))
	return s, nil
}

func (s *Store) read(ctx context.Context) ([]byte, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

func (s *Store) decode(data []byte) []types.Artifact {
	if len(data) == 0 {
		return nil
	}
	var artifacts []types.Artifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		logging.ArchiveWarn("archive entry %q is corrupt, starting empty: %v", s.key, err)
		return nil
	}
	return artifacts
}

// persist writes next and swaps it in only when the write succeeds.
// Callers hold s.mu.
func (s *Store) persist(ctx context.Context, next []types.Artifact) error {
	if next == nil {
		next = []types.Artifact{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	s.artifacts = next
	s.lastSeen = data
	s.version++
	return nil
}

// Append inserts a at the head of the list.
func (s *Store) Append(ctx context.Context, a types.Artifact) error {
	s.mu.Lock()
	next := make([]types.Artifact, 0, len(s.artifacts)+1)
	next = append(next, a)
	next = append(next, s.artifacts...)
	err := s.persist(ctx, next)
	n := len(s.artifacts)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logging.ArchiveDebug("appended %s (%d total)", a.Name, n)
	s.notify(n)
	return nil
}

// Remove deletes the artifact with id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	next := slices.Delete(slices.Clone(s.artifacts), idx, idx+1)
	err := s.persist(ctx, next)
	n := len(s.artifacts)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logging.ArchiveDebug("removed %s (%d total)", id, n)
	s.notify(n)
	return nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.artifacts, func(a types.Artifact) bool { return a.ID == id })
}

// List returns a copy of the artifacts, newest first.
func (s *Store) List() []types.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.artifacts)
}

// Get returns the artifact with id.
func (s *Store) Get(id string) (types.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.artifacts[idx], nil
	}
	return types.Artifact{}, fmt.Errorf("%w: %s", types.ErrArtifactNotFound, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// OnChange registers fn to receive the new length after every change,
// including reloads triggered by Watch.
func (s *Store) OnChange(fn func(n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(n int) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(n)
	}
}

// Reload re-reads the entry from the backend. Entries this store wrote
// itself are skipped. A read that raced with a local Append or Remove is
// dropped; the local list is the newer one.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()

	data, err := s.read(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case s.version != version:
		s.mu.Unlock()
		logging.ArchiveDebug("reload raced with a local write, dropped")
		return nil
	case bytes.Equal(data, s.lastSeen):
		s.mu.Unlock()
		return nil
	}
	s.artifacts = s.decode(data)
	s.lastSeen = data
	n := len(s.artifacts)
	s.mu.Unlock()

	s.notify(n)
	return nil
}

// Close stops any watcher and closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Stop()
	}
	return s.kv.Close()
}
