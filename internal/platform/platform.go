// Package platform abstracts the host capabilities the exporter and the
// archive view rely on: capturing the rendered view, composing a document,
// sharing a file, and saving a download.
package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pricelens/internal/atomicfile"
	"pricelens/internal/document"
	"pricelens/internal/logging"
	"pricelens/internal/types"
)

// File is a transferable document handed to the share surface.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Capabilities is implemented once per target platform.
type Capabilities interface {
	// Capture rasterizes the rendered result view.
	Capture(ctx context.Context, view string) ([]byte, error)
	// Compose wraps an image into an encoded single-page document.
	Compose(img []byte, title string) ([]byte, error)
	// CanShare reports whether a native share surface exists.
	CanShare() bool
	// Share hands file to the share surface.
	Share(ctx context.Context, file File, title, text string) error
	// Download saves data under filename and returns where it went.
	Download(data []byte, filename string) (string, error)
}

// ViewCapturer rasterizes an HTML view. *browser.Capturer implements it.
type ViewCapturer interface {
	Capture(ctx context.Context, html string) ([]byte, error)
}

// CommandRunner runs an external program.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Desktop implements Capabilities for a workstation or terminal session.
type Desktop struct {
	capturer     ViewCapturer
	downloadsDir string
	shareDir     string
	shareCommand []string
	run          CommandRunner
}

// DesktopConfig configures a Desktop platform.
type DesktopConfig struct {
	DownloadsDir string
	// ShareDir holds files handed to the share command; defaults to a
	// directory under os.TempDir.
	ShareDir string
	// ShareCommand is argv with {file}, {title} and {text} placeholders.
	// Empty disables sharing.
	ShareCommand []string
	Runner       CommandRunner
}

// NewDesktop creates the desktop platform around a view capturer.
func NewDesktop(capturer ViewCapturer, cfg DesktopConfig) *Desktop {
	run := cfg.Runner
	if run == nil {
		run = execRunner
	}
	shareDir := cfg.ShareDir
	if shareDir == "" {
		shareDir = filepath.Join(os.TempDir(), "pricelens-share")
	}
	return &Desktop{
		capturer:     capturer,
		downloadsDir: cfg.DownloadsDir,
		shareDir:     shareDir,
		shareCommand: cfg.ShareCommand,
		run:          run,
	}
}

func (d *Desktop) Capture(ctx context.Context, view string) ([]byte, error) {
	if d.capturer == nil {
		return nil, fmt.Errorf("%w: no view capturer", types.ErrComposition)
	}
	return d.capturer.Capture(ctx, view)
}

func (d *Desktop) Compose(img []byte, title string) ([]byte, error) {
	return document.Compose(img, document.Options{Title: title, Creator: "pricelens"})
}

func (d *Desktop) CanShare() bool {
	return len(d.shareCommand) > 0
}

// Share writes the file to the share directory and invokes the share command.
func (d *Desktop) Share(ctx context.Context, file File, title, text string) error {
	if !d.CanShare() {
		return types.ErrShareUnsupported
	}

	path, err := writeFile(d.shareDir, file.Name, file.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrShareFailed, err)
	}

	repl := strings.NewReplacer("{file}", path, "{title}", title, "{text}", text)
	argv := make([]string, len(d.shareCommand))
	for i, a := range d.shareCommand {
		argv[i] = repl.Replace(a)
	}

	logging.Share("sharing %s via %s", file.Name, argv[0])
	if err := d.run(ctx, argv[0], argv[1:]...); err != nil {
		logging.ShareWarn("share command failed: %v", err)
		return fmt.Errorf("%w: %v", types.ErrShareFailed, err)
	}
	return nil
}

// Download saves data into the downloads directory.
func (d *Desktop) Download(data []byte, filename string) (string, error) {
	path, err := writeFile(d.downloadsDir, filename, data)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", filename, err)
	}
	logging.Share("downloaded %s (%d bytes)", path, len(data))
	return path, nil
}

// writeFile atomically writes data to dir/base(name).
func writeFile(dir, name string, data []byte) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := atomicfile.Write(path, data); err != nil {
		return "", err
	}
	return path, nil
}
