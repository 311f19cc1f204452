// Package downloads backs the archive view: listing, re-downloading,
// sharing and deleting previously exported documents.
package downloads

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pricelens/internal/archive"
	"pricelens/internal/document"
	"pricelens/internal/logging"
	"pricelens/internal/platform"
	"pricelens/internal/types"
)

// DefaultParallelism bounds DownloadAll.
const DefaultParallelism = 4

// Manager operates on artifacts held by an archive store.
type Manager struct {
	store    *archive.Store
	platform platform.Capabilities
	parallel int
}

// New creates a manager. parallel <= 0 uses DefaultParallelism.
func New(store *archive.Store, p platform.Capabilities, parallel int) *Manager {
	if parallel <= 0 {
		parallel = DefaultParallelism
	}
	return &Manager{store: store, platform: p, parallel: parallel}
}

// List returns the artifacts, newest first.
func (m *Manager) List() []types.Artifact { return m.store.List() }

// Count is the badge number shown in the navigation.
func (m *Manager) Count() int { return m.store.Len() }

// CanShare reports whether sharing should be offered at all.
func (m *Manager) CanShare() bool { return m.platform.CanShare() }

// Download saves the artifact payload under its name.
func (m *Manager) Download(id string) (string, error) {
	a, err := m.store.Get(id)
	if err != nil {
		return "", err
	}
	return m.download(a)
}

func (m *Manager) download(a types.Artifact) (string, error) {
	pdf, err := document.DecodeDataURI(a.Data)
	if err != nil {
		return "", fmt.Errorf("artifact %s: %w", a.ID, err)
	}
	return m.platform.Download(pdf, a.Name)
}

// DownloadAll saves every artifact and returns the paths in list order.
// It stops at the first failure.
func (m *Manager) DownloadAll(ctx context.Context) ([]string, error) {
	list := m.store.List()
	paths := make([]string, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallel)
	for i, a := range list {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := m.download(a)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logging.Share("downloaded %d artifacts", len(list))
	return paths, nil
}

// Share hands the artifact to the platform share surface. The archive is
// never modified, whatever the outcome.
func (m *Manager) Share(ctx context.Context, id string) error {
	a, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if !m.platform.CanShare() {
		return types.ErrShareUnsupported
	}

	pdf, err := document.DecodeDataURI(a.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrShareFailed, err)
	}

	file := platform.File{Name: a.Name, MediaType: document.MediaType, Data: pdf}
	err = m.platform.Share(ctx, file, a.Name, a.ShareText())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrShareUnsupported), errors.Is(err, types.ErrShareFailed):
		return err
	default:
		return fmt.Errorf("%w: %v", types.ErrShareFailed, err)
	}
}

// Delete removes the artifact. Unknown ids are a no-op.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Remove(ctx, id); err != nil {
		return err
	}
	logging.Archive("deleted %s", id)
	return nil
}
