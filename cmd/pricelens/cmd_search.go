package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"pricelens/internal/render"
	"pricelens/internal/session"
	"pricelens/internal/types"
)

var (
	searchCategory string
	searchExport   bool
	searchJSON     bool
	searchStyle    string
)

// searchCmd runs one comparison and optionally archives it
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Compare prices for a product query",
	Long: `Asks the provider for 3-5 matching products with retailer offers,
cheapest first, and prints them as comparison cards.

Examples:
  pricelens search "RTX 4080"
  pricelens search --category Kameras "Sony A7 IV" --export`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", string(types.CategoryHardware), "Category: PC-Hardware or Kameras")
	searchCmd.Flags().BoolVar(&searchExport, "export", false, "Export the results to the PDF archive")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print products as JSON")
	searchCmd.Flags().StringVar(&searchStyle, "style", "auto", "Glamour style for terminal output")
}

// signalContext cancels on SIGINT/SIGTERM and after the global timeout.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	category, err := types.ParseCategory(searchCategory)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(a.searcher)
	logger.Info("searching", zap.String("category", string(category)), zap.String("query", query))
	if err := sess.Submit(ctx, category, query); err != nil {
		return err
	}
	snap := sess.Snapshot()

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap.Products); err != nil {
			return err
		}
	} else {
		text, err := render.Terminal(snap.Query, snap.Products, terminalWidth(), searchStyle)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	}

	if !searchExport {
		return nil
	}
	res, err := a.composer.Export(ctx, snap.Query, snap.Products)
	if err != nil {
		return err
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "PDF gespeichert: %s\n", res.Artifact.Name)
	if res.DownloadPath != "" {
		fmt.Fprintf(w, "Heruntergeladen nach %s\n", res.DownloadPath)
	}
	return nil
}

// terminalWidth is the stdout width, or 100 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 100
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
