package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricelens/internal/config"
	"pricelens/internal/logging"
	"pricelens/internal/types"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pricelens",
	Short: "pricelens - AI price comparison with PDF archive",
	Long: `pricelens asks a generative model for current offers on hardware and
camera products, shows them as comparison cards, and freezes result lists
into single-page PDF documents kept in a local archive.

Run without arguments to start the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		workspace = ws

		path := configPath
		if path == "" {
			path = config.DefaultPath(ws)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		loaded.ResolvePaths(ws)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}
		cfg = loaded

		logCfg := logging.Config{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			File:       cfg.Logging.File,
			Categories: cfg.Logging.Categories,
		}
		// The shell owns the terminal; keep its logs off stderr.
		if (!cmd.HasParent() || cmd.Name() == "shell") && logCfg.File == "" {
			logCfg.File = filepath.Join(ws, config.DirName, "pricelens.log")
		}
		if err := logging.Initialize(logCfg, verbose); err != nil {
			return err
		}
		logger = logging.L()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runShell,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.pricelens/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, types.UserMessage(err))
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
		}
		logging.Sync()
		os.Exit(1)
	}
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}
