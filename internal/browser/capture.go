// Package browser captures the rendered result view with a headless Chrome
// driven by go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"pricelens/internal/logging"
	"pricelens/internal/types"
)

// Config holds browser configuration.
type Config struct {
	Bin            string // chrome binary; empty lets rod find or download one
	DebuggerURL    string // connect to a running chrome instead of launching
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	ScaleFactor    float64
	Timeout        time.Duration
	Selector       string // element to capture
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		ViewportWidth:  672,
		ViewportHeight: 900,
		ScaleFactor:    2,
		Timeout:        30 * time.Second,
		Selector:       "#results",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = d.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = d.ViewportHeight
	}
	if c.ScaleFactor <= 0 {
		c.ScaleFactor = d.ScaleFactor
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Selector == "" {
		c.Selector = d.Selector
	}
	return c
}

// Capturer owns a lazily started Chrome instance.
type Capturer struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
}

// NewCapturer creates a capturer. Chrome is not started until the first capture.
func NewCapturer(cfg Config) *Capturer {
	return &Capturer{cfg: cfg.withDefaults()}
}

// startLocked connects to an existing Chrome or launches a new one.
func (c *Capturer) startLocked(ctx context.Context) error {
	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return nil
		}
		logging.Browser("stale browser connection detected, reconnecting")
		_ = c.browser.Close()
		c.browser = nil
	}

	controlURL := c.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(c.cfg.Headless)
		if c.cfg.Bin != "" {
			l = l.Bin(c.cfg.Bin)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	c.browser = b
	logging.BrowserDebug("connected to chrome at %s", controlURL)
	return nil
}

// Capture loads html into a fresh page and returns a PNG of the result
// element. Empty html or a missing element is a composition error.
func (c *Capturer) Capture(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("%w: view not rendered", types.ErrComposition)
	}

	c.mu.Lock()
	if err := c.startLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	b := c.browser
	c.mu.Unlock()

	start := time.Now()
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(c.cfg.Timeout)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             c.cfg.ViewportWidth,
		Height:            c.cfg.ViewportHeight,
		DeviceScaleFactor: c.cfg.ScaleFactor,
		Mobile:            false,
	}).Call(page); err != nil {
		logging.BrowserDebug("failed to set viewport: %v", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for view: %w", err)
	}

	el, err := page.Element(c.cfg.Selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: element %s not rendered", types.ErrComposition, c.cfg.Selector)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrComposition, err)
	}

	img, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	logging.Browser("captured %s in %v (%d bytes)", c.cfg.Selector, time.Since(start), len(img))
	return img, nil
}

// Close shuts down the browser.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}
