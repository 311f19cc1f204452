package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pricelens/cmd/pricelens/ui"
	"pricelens/internal/archive"
	"pricelens/internal/logging"
	"pricelens/internal/session"
)

// shellCmd is the explicit form of running pricelens without arguments
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive search and downloads shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// runShell launches the interactive search and downloads views.
func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Watch(ctx); err != nil && !errors.Is(err, archive.ErrWatchUnsupported) {
		logging.ArchiveWarn("archive watch disabled: %v", err)
	}

	sess := session.New(a.searcher)
	defer func() {
		// Abort in-flight searches before the archive closes.
		cancel()
		sess.Wait()
	}()

	err = ui.Run(ctx, ui.Deps{
		Session:   sess,
		Exporter:  a.composer,
		Archive:   a.manager,
		Styles:    ui.DefaultStyles(),
		Subscribe: a.store.OnChange,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
