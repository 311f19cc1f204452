package main

import (
	"context"
	"fmt"
	"path/filepath"

	"pricelens/internal/archive"
	"pricelens/internal/browser"
	"pricelens/internal/composer"
	"pricelens/internal/config"
	"pricelens/internal/downloads"
	"pricelens/internal/logging"
	"pricelens/internal/platform"
	"pricelens/internal/provider"
	"pricelens/internal/render"
	"pricelens/internal/session"
	"pricelens/internal/usage"
)

func usagePath() string {
	return filepath.Join(workspace, config.DirName, usage.FileName)
}

// app bundles the services shared by the shell and the subcommands.
type app struct {
	cfg      *config.Config
	store    *archive.Store
	platform platform.Capabilities
	searcher session.Searcher
	composer *composer.Composer
	manager  *downloads.Manager

	closers []func() error
}

// Seams replaced in tests.
var (
	newSearcher = func(ctx context.Context, c *config.Config) (session.Searcher, error) {
		a, err := provider.New(ctx, provider.Config{
			APIKey:      c.LLM.APIKey,
			Model:       c.LLM.Model,
			Temperature: c.LLM.Temperature,
			Timeout:     c.GetLLMTimeout(),
		})
		if err != nil {
			return nil, err
		}
		if tracker := usage.FromContext(ctx); tracker != nil {
			a.SetRecorder(tracker)
		}
		return a, nil
	}

	newPlatform = func(c *config.Config) (platform.Capabilities, func() error) {
		capturer := browser.NewCapturer(browser.Config{
			Bin:           c.Export.BrowserBin,
			DebuggerURL:   c.Export.DebuggerURL,
			Headless:      c.Export.Headless,
			ViewportWidth: c.Export.ViewportWidth,
			Timeout:       c.GetCaptureTimeout(),
		})
		desktop := platform.NewDesktop(capturer, platform.DesktopConfig{
			DownloadsDir: c.Export.DownloadsDir,
			ShareCommand: c.Share.Command,
		})
		return desktop, capturer.Close
	}

	openKV = func(ctx context.Context, c *config.Config) (archive.KV, error) {
		target := c.Archive.Path
		switch c.Archive.Backend {
		case archive.BackendRedis:
			target = c.Archive.RedisURL
		case archive.BackendFile:
			if filepath.Ext(target) != "" {
				target = filepath.Dir(target)
			}
		}
		return archive.OpenKV(ctx, c.Archive.Backend, target)
	}
)

// newApp opens the archive and platform. withProvider also requires the API
// credential, which is a fatal startup error when missing.
func newApp(ctx context.Context, c *config.Config, withProvider bool) (*app, error) {
	a := &app{cfg: c}

	if withProvider {
		if err := c.RequireCredential(); err != nil {
			return nil, err
		}
		tracker, err := usage.NewTracker(usagePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tracker.Flush)

		s, err := newSearcher(usage.NewContext(ctx, tracker), c)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.searcher = s
	}

	kv, err := openKV(ctx, c)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	store, err := archive.Open(ctx, kv, c.Archive.Key)
	if err != nil {
		kv.Close()
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	p, closePlatform := newPlatform(c)
	a.platform = p
	if closePlatform != nil {
		a.closers = append(a.closers, closePlatform)
	}

	a.composer = composer.New(p, store, composer.WithHTMLOptions(render.HTMLOptions{
		Background: c.Export.Background,
		Width:      c.Export.ViewportWidth,
	}))
	a.manager = downloads.New(store, p, 0)

	logging.Boot("app ready: backend=%s share=%v provider=%v", c.Archive.Backend, p.CanShare(), withProvider)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.BootWarn("shutdown: %v", err)
		}
	}
}
