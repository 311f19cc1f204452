// Package composer freezes the current result list into an archived PDF.
package composer

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"pricelens/internal/archive"
	"pricelens/internal/document"
	"pricelens/internal/logging"
	"pricelens/internal/platform"
	"pricelens/internal/render"
	"pricelens/internal/types"
)

// DateLayout is the display format of Artifact.Date.
const DateLayout = "02.01.2006, 15:04:05"

var unsafeName = regexp.MustCompile(`[\s/\\]+`)

// Result of a successful export.
type Result struct {
	Artifact types.Artifact
	// DownloadPath is where the platform saved the file; empty when the
	// download failed.
	DownloadPath string
}

// Composer renders, captures, composes, persists and downloads.
type Composer struct {
	platform platform.Capabilities
	store    *archive.Store
	html     render.HTMLOptions

	now   func() time.Time
	newID func() (uuid.UUID, error)

	mu     sync.Mutex
	lastMS int64
}

// Option configures a Composer.
type Option func(*Composer)

// WithHTMLOptions sets the page background and width used for capture.
func WithHTMLOptions(o render.HTMLOptions) Option {
	return func(c *Composer) { c.html = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// New creates a composer writing into store.
func New(p platform.Capabilities, store *archive.Store, opts ...Option) *Composer {
	c := &Composer{
		platform: p,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewV7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export turns products into a new archived artifact placed at the head of
// the store and hands the payload to the platform download. A failure before
// persisting leaves the store untouched and wraps types.ErrComposition.
func (c *Composer) Export(ctx context.Context, query string, products []types.Product) (*Result, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products to export", types.ErrComposition)
	}

	page, err := render.HTML(query, products, c.html)
	if err != nil {
		return nil, c.fail("render", err)
	}

	img, err := c.platform.Capture(ctx, page)
	if err != nil {
		return nil, c.fail("capture", err)
	}

	created := c.now()
	name := c.fileName(query, created)

	pdf, err := c.platform.Compose(img, name)
	if err != nil {
		return nil, c.fail("compose", err)
	}

	id, err := c.newID()
	if err != nil {
		return nil, c.fail("id", err)
	}

	a := types.Artifact{
		ID:   id.String(),
		Name: name,
		Date: created.Format(DateLayout),
		Data: document.EncodeDataURI(pdf),
	}
	if err := c.store.Append(ctx, a); err != nil {
		return nil, c.fail("persist", err)
	}
	logging.Export("exported %s (%d products, %d bytes)", a.Name, len(products), len(pdf))

	res := &Result{Artifact: a}
	path, err := c.platform.Download(pdf, a.Name)
	if err != nil {
		logging.ExportError("download of %s failed: %v", a.Name, err)
	} else {
		res.DownloadPath = path
	}
	return res, nil
}

func (c *Composer) fail(stage string, err error) error {
	logging.ExportError("export failed at %s: %v", stage, err)
	return fmt.Errorf("%w: %s: %v", types.ErrComposition, stage, err)
}

// fileName builds Preisvergleich-<query>-<unix ms>.pdf. The millisecond
// token is strictly increasing within the process.
func (c *Composer) fileName(query string, t time.Time) string {
	c.mu.Lock()
	ms := t.UnixMilli()
	if ms <= c.lastMS {
		ms = c.lastMS + 1
	}
	c.lastMS = ms
	c.mu.Unlock()

	return fmt.Sprintf("Preisvergleich-%s-%d.pdf", unsafeName.ReplaceAllString(query, "_"), ms)
}
