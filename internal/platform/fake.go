package platform

import (
	"context"
	"fmt"
	"sync"

	"pricelens/internal/document"
	"pricelens/internal/types"
)

// Fake is an in-memory Capabilities used by tests and headless runs.
type Fake struct {
	mu sync.Mutex

	// Image is returned by Capture.
	Image []byte
	// CaptureErr, ShareErr and DownloadErr force failures.
	CaptureErr  error
	ShareErr    error
	DownloadErr error
	// Sharing enables the share surface.
	Sharing bool

	Captured  []string
	Shared    []File
	Downloads map[string][]byte
}

var _ Capabilities = (*Fake)(nil)

func (f *Fake) Capture(_ context.Context, view string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Captured = append(f.Captured, view)
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	return f.Image, nil
}

func (f *Fake) Compose(img []byte, title string) ([]byte, error) {
	return document.Compose(img, document.Options{Title: title})
}

func (f *Fake) CanShare() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Sharing
}

func (f *Fake) Share(_ context.Context, file File, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Sharing {
		return types.ErrShareUnsupported
	}
	if f.ShareErr != nil {
		return fmt.Errorf("%w: %v", types.ErrShareFailed, f.ShareErr)
	}
	f.Shared = append(f.Shared, file)
	return nil
}

func (f *Fake) Download(data []byte, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DownloadErr != nil {
		return "", f.DownloadErr
	}
	if f.Downloads == nil {
		f.Downloads = make(map[string][]byte)
	}
	f.Downloads[filename] = append([]byte(nil), data...)
	return filename, nil
}

// DownloadCount returns the number of distinct downloaded files.
func (f *Fake) DownloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Downloads)
}
